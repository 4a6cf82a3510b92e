// Package validation configures the shared request validator and turns its
// failures into field-level messages keyed by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

const requiredText = "{0} is required"

// Validator bundles a validator instance with its English translator.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a validator that reports JSON field names and English messages.
func New() *Validator {
	validate := validator.New()
	locale := en.New()
	uni := ut.New(locale, locale)
	translator, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", notBlank)
	registerTranslation(validate, translator, "notblank", "{0} must not be blank")
	_ = validate.RegisterValidation("month", academicMonth)
	registerTranslation(validate, translator, "month", "{0} must be a month of the academic year (Apr-Mar)")
	registerTranslation(validate, translator, "required", requiredText)

	return &Validator{validate: validate, translator: translator}
}

// Engine exposes the underlying validator for services that expect one.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// Struct validates s and returns a VALIDATION_ERROR carrying per-field messages.
func (v *Validator) Struct(s interface{}, message string) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return FromValidator(err, v.translator, message)
}

// FromValidator converts validator errors into an *appErrors.Error with details.
func FromValidator(err error, translator ut.Translator, message string) error {
	if message == "" {
		message = appErrors.ErrValidation.Message
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fieldPath(fe)
		if _, exists := details[key]; exists {
			continue
		}
		if translator != nil {
			details[key] = fe.Translate(translator)
		} else {
			details[key] = fe.Error()
		}
	}
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	appErr.Details = details
	return appErr
}

// fieldPath strips the root struct name from the namespace ("Req.items[0]" -> "items[0]").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func academicMonth(fl validator.FieldLevel) bool {
	_, ok := models.CanonicalMonth(fl.Field().String())
	return ok
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}
