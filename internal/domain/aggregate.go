package domain

import "time"

const (
	// InitialPoints is the points balance every student starts from.
	InitialPoints = 0
	// InitialCredits is the baseline credit grant every student starts from.
	InitialCredits = 100
)

// StudentAggregate is the derived per-student snapshot stored in stu_details.
type StudentAggregate struct {
	ID                  int64
	UserID              string
	AccumulatedPoints   int
	AccumulatedCredits  int
	RequestsMade        int
	RequestsApproved    int
	TotalPointAdditions int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewStudentAggregate returns the baseline aggregate for a student with no history.
func NewStudentAggregate(userID string) *StudentAggregate {
	return &StudentAggregate{
		UserID:             userID,
		AccumulatedPoints:  InitialPoints,
		AccumulatedCredits: InitialCredits,
	}
}

// SameTotals compares the five derived fields, ignoring identity and timestamps.
func (a StudentAggregate) SameTotals(b StudentAggregate) bool {
	return a.UserID == b.UserID &&
		a.AccumulatedPoints == b.AccumulatedPoints &&
		a.AccumulatedCredits == b.AccumulatedCredits &&
		a.RequestsMade == b.RequestsMade &&
		a.RequestsApproved == b.RequestsApproved &&
		a.TotalPointAdditions == b.TotalPointAdditions
}
