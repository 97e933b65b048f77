package models

// DriveStatistics is derived from a drive's registration set. It is never
// persisted; callers recompute it from the current registrations.
type DriveStatistics struct {
	Total       int     `json:"total"`
	Registered  int     `json:"registered"`
	Selected    int     `json:"selected"`
	Rejected    int     `json:"rejected"`
	Waitlisted  int     `json:"waitlisted"`
	CSEStudents int     `json:"cse_students"`
	ITStudents  int     `json:"it_students"`
	AverageCGPA float64 `json:"average_cgpa"`
}
