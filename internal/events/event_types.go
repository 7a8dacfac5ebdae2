package events

import (
	"time"

	"github.com/spec-kit/timebank/internal/domain"
)

// EventType enumerates supported notification identifiers.
type EventType string

const (
	EventPointsRequested      EventType = "points_requested"
	EventPointsValidated      EventType = "points_validated"
	EventBalancesRecalculated EventType = "balances_recalculated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type   domain.UserType `json:"type"`
	UserID string          `json:"user_id,omitempty"`
}

// Event is published in-process after the originating transaction commits.
type Event struct {
	Type      EventType   `json:"type"`
	LedgerID  int64       `json:"ledger_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PointsRequestedPayload payload.
type PointsRequestedPayload struct {
	StudentID   string `json:"student_id"`
	PointChange int    `json:"point_change"`
}

// PointsValidatedPayload payload.
type PointsValidatedPayload struct {
	RequestID  int64            `json:"request_id"`
	StudentID  string           `json:"student_id"`
	Outcome    domain.EventType `json:"outcome"`
	PointDiff  int              `json:"point_diff"`
	CreditDiff int              `json:"credit_diff"`
}

// BalancesRecalculatedPayload payload.
type BalancesRecalculatedPayload struct {
	Students int           `json:"students"`
	Events   int           `json:"events"`
	Duration time.Duration `json:"duration"`
}
