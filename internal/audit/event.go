package audit

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of an audited operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Actions as they appear in audit events. They match the provider
// operation names.
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionUpdateMany = "updateMany"
	ActionDelete     = "delete"
	ActionDeleteMany = "deleteMany"
)

// Event is one audit record for a write operation.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	Resource  string        `json:"resource"`
	RecordIDs []interface{} `json:"recordIds,omitempty"`
	Outcome   Outcome       `json:"outcome"`

	// DurationMS is the operation duration in milliseconds.
	DurationMS float64 `json:"durationMs,omitempty"`

	TraceID   string `json:"traceId,omitempty"`
	RequestID string `json:"requestId,omitempty"`

	// Error holds the failure detail when Outcome is failure.
	Error string `json:"error,omitempty"`
}

// NewEvent creates an event with a fresh id and timestamp.
func NewEvent(action, resource string, recordIDs []interface{}, outcome Outcome) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Resource:  resource,
		RecordIDs: recordIDs,
		Outcome:   outcome,
	}
}

// WithDuration sets the operation duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.DurationMS = float64(d.Nanoseconds()) / 1e6
	return e
}

// WithRequestID sets the correlation id of the inbound request.
func (e *Event) WithRequestID(requestID string) *Event {
	e.RequestID = requestID
	return e
}

// WithError marks the event failed with the error's message.
func (e *Event) WithError(err error) *Event {
	if err != nil {
		e.Outcome = OutcomeFailure
		e.Error = err.Error()
	}
	return e
}
