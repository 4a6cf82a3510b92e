package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// ImageOptions controls how uploaded images are normalised before storage.
type ImageOptions struct {
	MaxWidth int
	Quality  int
}

// SaveImage decodes r, shrinks it to MaxWidth keeping the aspect ratio and stores
// it as JPEG under name.
func (s *LocalStorage) SaveImage(name string, r io.Reader, opts ImageOptions) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	if opts.MaxWidth > 0 && img.Bounds().Dx() > opts.MaxWidth {
		img = imaging.Resize(img, opts.MaxWidth, 0, imaging.Lanczos)
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return s.Save(name, buf.Bytes())
}
