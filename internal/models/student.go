package models

import (
	"strings"
	"time"
)

// AcademicMonths is the billing cycle seeded for every new admission, in order.
var AcademicMonths = []string{"Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}

// CanonicalMonth maps m onto its AcademicMonths spelling, ignoring case and
// surrounding space. ok is false for anything outside the billing cycle.
func CanonicalMonth(m string) (string, bool) {
	m = strings.TrimSpace(m)
	for _, month := range AcademicMonths {
		if strings.EqualFold(month, m) {
			return month, true
		}
	}
	return m, false
}

// CanonicalMonths applies CanonicalMonth to each entry, leaving unknown values trimmed.
func CanonicalMonths(months []string) []string {
	if months == nil {
		return nil
	}
	out := make([]string, len(months))
	for i, m := range months {
		out[i], _ = CanonicalMonth(m)
	}
	return out
}

// Student is an admitted learner identified by admission number.
type Student struct {
	ID              int64      `db:"id" json:"id"`
	AdmissionNumber string     `db:"admission_number" json:"admissionNumber"`
	RollNo          string     `db:"roll_no" json:"rollNo"`
	FirstName       string     `db:"first_name" json:"firstName"`
	MiddleName      string     `db:"middle_name" json:"middleName"`
	LastName        string     `db:"last_name" json:"lastName"`
	DOB             *time.Time `db:"dob" json:"dob,omitempty"`
	Gender          string     `db:"gender" json:"gender"`
	Category        string     `db:"category" json:"category"`
	ClassName       string     `db:"class_name" json:"className"`
	Section         string     `db:"section" json:"section"`
	Mobile          string     `db:"mobile" json:"mobile"`
	Email           string     `db:"email" json:"email"`
	Address         string     `db:"address" json:"address"`
	City            string     `db:"city" json:"city"`
	State           string     `db:"state" json:"state"`
	Pincode         string     `db:"pincode" json:"pincode"`
	RouteName       *string    `db:"route_name" json:"routeName,omitempty"`
	Photo           *string    `db:"photo" json:"photo,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// FullName joins the non-empty name parts.
func (s Student) FullName() string {
	name := s.FirstName
	for _, part := range []string{s.MiddleName, s.LastName} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	return name
}

// Route returns the assigned transport route, or "" when the student has none.
func (s Student) Route() string {
	if s.RouteName == nil {
		return ""
	}
	return *s.RouteName
}

// StudentMonth is an outstanding billing month for a student.
type StudentMonth struct {
	ID              int64  `db:"id" json:"id"`
	AdmissionNumber string `db:"admission_number" json:"admissionNumber"`
	Month           string `db:"month" json:"month"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	ClassName string
	Section   string
	Keyword   string
	Page      int
	PageSize  int
}
