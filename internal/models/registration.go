package models

import "time"

// RegistrationStatus represents a student's outcome on a drive.
type RegistrationStatus string

// Possible registration statuses. All four are mutually reachable so
// operators can correct mistakes.
const (
	RegistrationStatusRegistered RegistrationStatus = "Registered"
	RegistrationStatusSelected   RegistrationStatus = "Selected"
	RegistrationStatusRejected   RegistrationStatus = "Rejected"
	RegistrationStatusWaitlisted RegistrationStatus = "Waitlisted"
)

// IsValid reports whether the value is one of the four registration statuses.
func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationStatusRegistered, RegistrationStatusSelected, RegistrationStatusRejected, RegistrationStatusWaitlisted:
		return true
	}
	return false
}

// Registration captures a student's application against one drive. The
// placement fields are only meaningful when Status is Selected, but they are
// stored independently; the service never infers a status from them.
type Registration struct {
	ID               string             `db:"id" json:"id"`
	DriveID          string             `db:"drive_id" json:"drive_id"`
	StudentName      string             `db:"student_name" json:"student_name"`
	RollNumber       string             `db:"roll_number" json:"roll_number"`
	Branch           string             `db:"branch" json:"branch"`
	CGPA             *float64           `db:"cgpa" json:"cgpa,omitempty"`
	Email            string             `db:"email" json:"email"`
	Phone            string             `db:"phone" json:"phone"`
	RegistrationDate time.Time          `db:"registration_date" json:"registration_date"`
	Status           RegistrationStatus `db:"status" json:"status"`
	PlacedPackage    *string            `db:"placed_package" json:"placed_package,omitempty"`
	StartDate        *time.Time         `db:"start_date" json:"start_date,omitempty"`
	PlacedDate       *time.Time         `db:"placed_date" json:"placed_date,omitempty"`
	Version          int                `db:"version" json:"version"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// RegistrationFilter provides filters for listing registrations of a drive.
type RegistrationFilter struct {
	Status   RegistrationStatus
	Page     int
	PageSize int
}
