package dto

import (
	"time"

	"github.com/spec-kit/timebank/internal/domain"
)

// PointsRequest is a student's point change request.
type PointsRequest struct {
	PointChange *int   `json:"pointChange"`
	ContentHTML string `json:"contentHtml"`
}

// PointsRequestResponse carries the id of the created pending event.
type PointsRequestResponse struct {
	EventID int64 `json:"eventId"`
}

// ValidatePointsRequest is a staff decision.
type ValidatePointsRequest struct {
	RequestID   int64  `json:"requestId"`
	PointDiff   int    `json:"pointDiff"`
	CreditDiff  int    `json:"creditDiff"`
	Accepted    bool   `json:"accepted"`
	ContentHTML string `json:"contentHtml"`
}

// ValidatePointsResponse carries the decision event id and outcome.
type ValidatePointsResponse struct {
	EventID int64            `json:"eventId"`
	Status  domain.EventType `json:"status"`
}

// StudentDetailsResponse is the caller's aggregate.
type StudentDetailsResponse struct {
	UserID              string `json:"userId"`
	AccumulatedPoints   int    `json:"accumulatedPoints"`
	AccumulatedCredits  int    `json:"accumulatedCredits"`
	RequestsMade        int    `json:"requestsMade"`
	RequestsApproved    int    `json:"requestsApproved"`
	TotalPointAdditions int    `json:"totalPointAdditions"`
}

// NewStudentDetailsResponse maps an aggregate.
func NewStudentDetailsResponse(agg *domain.StudentAggregate) StudentDetailsResponse {
	return StudentDetailsResponse{
		UserID:              agg.UserID,
		AccumulatedPoints:   agg.AccumulatedPoints,
		AccumulatedCredits:  agg.AccumulatedCredits,
		RequestsMade:        agg.RequestsMade,
		RequestsApproved:    agg.RequestsApproved,
		TotalPointAdditions: agg.TotalPointAdditions,
	}
}

// RecalculationResponse summarizes an on-demand recalculation.
type RecalculationResponse struct {
	Students   int   `json:"students"`
	Events     int   `json:"events"`
	DurationMS int64 `json:"durationMs"`
}

// NewRecalculationResponse converts run statistics.
func NewRecalculationResponse(students, events int, duration time.Duration) RecalculationResponse {
	return RecalculationResponse{Students: students, Events: events, DurationMS: duration.Milliseconds()}
}
