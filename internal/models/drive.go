package models

import "time"

// DriveStatus represents the lifecycle stage of a placement drive.
type DriveStatus string

// Possible drive statuses.
const (
	DriveStatusDraft     DriveStatus = "Draft"
	DriveStatusUpcoming  DriveStatus = "Upcoming"
	DriveStatusOpen      DriveStatus = "Open"
	DriveStatusClosed    DriveStatus = "Closed"
	DriveStatusCompleted DriveStatus = "Completed"
)

// IsValid reports whether the value is one of the five drive statuses.
func (s DriveStatus) IsValid() bool {
	switch s {
	case DriveStatusDraft, DriveStatusUpcoming, DriveStatusOpen, DriveStatusClosed, DriveStatusCompleted:
		return true
	}
	return false
}

// Drive is a recruiting event published by a college. Version increments on
// every update and backs the optimistic concurrency check.
type Drive struct {
	ID                   string      `db:"id" json:"id"`
	OrgID                string      `db:"org_id" json:"org_id"`
	Title                string      `db:"title" json:"title"`
	Company              string      `db:"company" json:"company"`
	Role                 string      `db:"role" json:"role"`
	SalaryPackage        string      `db:"salary_package" json:"salary_package"`
	DriveDate            time.Time   `db:"drive_date" json:"drive_date"`
	DriveTime            string      `db:"drive_time" json:"drive_time"`
	Mode                 string      `db:"mode" json:"mode"`
	Location             string      `db:"location" json:"location"`
	EligibilityCriteria  string      `db:"eligibility_criteria" json:"eligibility_criteria"`
	Requirements         string      `db:"requirements" json:"requirements"`
	Description          string      `db:"description" json:"description"`
	PositionsAvailable   int         `db:"positions_available" json:"positions_available"`
	RegistrationDeadline time.Time   `db:"registration_deadline" json:"registration_deadline"`
	Status               DriveStatus `db:"status" json:"status"`
	Version              int         `db:"version" json:"version"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at" json:"updated_at"`
}

// DriveFilter encapsulates allowed search parameters for listing drives.
type DriveFilter struct {
	Search    string
	Status    DriveStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
