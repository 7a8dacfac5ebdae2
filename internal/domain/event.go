package domain

import "time"

// EventType enumerates ledger event kinds.
type EventType string

const (
	EventTypePending  EventType = "pending"
	EventTypeAccepted EventType = "accepted"
	EventTypeRejected EventType = "rejected"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventTypePending, EventTypeAccepted, EventTypeRejected:
		return true
	}
	return false
}

// Event is an immutable entry in the points/credits log.
type Event struct {
	ID          int64
	CreatedAt   time.Time
	InitStuID   *string
	InitStaID   *string
	RecvStuID   *string
	RecvStaID   *string
	RefEventID  *int64
	PointDiff   int
	CreditDiff  int
	Type        EventType
	ContentHTML string
}

// SubjectStudent returns the student an event is accounted to: the initiator
// for requests, the recipient for staff decisions.
func (e Event) SubjectStudent() (string, bool) {
	if e.InitStuID != nil && *e.InitStuID != "" {
		return *e.InitStuID, true
	}
	if e.RecvStuID != nil && *e.RecvStuID != "" {
		return *e.RecvStuID, true
	}
	return "", false
}
