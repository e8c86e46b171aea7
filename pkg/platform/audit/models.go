package audit

import (
	"context"
	"time"
)

// Event records one committed credential lifecycle change. Events are emitted
// only after the ledger invocation that caused them has committed.
type Event struct {
	ID        string
	Timestamp time.Time
	Action    string
	// Subject is the party the event is about: a student, university or verifier.
	Subject string
	// Resource is the ledger key that changed or was checked.
	Resource  string
	Actor     string
	Outcome   string
	RequestID string
}

// Action names the lifecycle step an Event records.
type Action string

const (
	ActionUniversityKeyRegistered Action = "university_key_registered"
	ActionDegreeRequested         Action = "degree_requested"
	ActionVerificationRequested   Action = "verification_requested"
	ActionDegreeIssued            Action = "degree_issued"
	ActionVerificationCompleted   Action = "verification_request_completed"
	ActionDegreeVerified          Action = "degree_verified"
	ActionRecordPatched           Action = "record_patched"
	ActionRequestIndexesRebuilt   Action = "request_indexes_rebuilt"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
