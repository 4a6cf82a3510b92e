package dto

import "github.com/noah-isme/school-fees-api/internal/models"

// CreateStudentRequest is the admission form payload.
type CreateStudentRequest struct {
	AdmissionNumber string `json:"admissionNumber" validate:"required,notblank,max=50"`
	RollNo          string `json:"rollNo" validate:"max=50"`
	FirstName       string `json:"firstName" validate:"required,notblank,max=100"`
	MiddleName      string `json:"middleName" validate:"max=100"`
	LastName        string `json:"lastName" validate:"max=100"`
	DOB             string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender" validate:"max=20"`
	Category        string `json:"category" validate:"required,notblank,max=50"`
	ClassName       string `json:"className" validate:"required,notblank,max=50"`
	Section         string `json:"section" validate:"max=20"`
	Mobile          string `json:"mobile" validate:"max=30"`
	Email           string `json:"email" validate:"omitempty,email"`
	Address         string `json:"address"`
	City            string `json:"city" validate:"max=100"`
	State           string `json:"state" validate:"max=100"`
	Pincode         string `json:"pincode" validate:"max=20"`
	RouteName       string `json:"routeName" validate:"max=100"`
}

// StudentDetail is a student with the months still owed.
type StudentDetail struct {
	Student models.Student `json:"student"`
	Months  []string       `json:"months"`
}
