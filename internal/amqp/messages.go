package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record kinds
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Event types
const (
	EventRecordCreated = "record.created"
	EventRecordUpdated = "record.updated"
	EventRecordDeleted = "record.deleted"
)

var ErrMalformedEvent = errors.New("malformed record event")

// RecordEvent announces a change to a user's records. It carries ids only;
// consumers read whatever else they need from the database.
type RecordEvent struct {
	Type      string    `json:"type"`
	Kind      string    `json:"kind"`
	UserID    int64     `json:"user_id"`
	RecordID  int64     `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordEvent creates an event stamped with the current time.
func NewRecordEvent(eventType, kind string, userID, recordID int64) *RecordEvent {
	return &RecordEvent{
		Type:      eventType,
		Kind:      kind,
		UserID:    userID,
		RecordID:  recordID,
		Timestamp: time.Now().UTC(),
	}
}

func (e *RecordEvent) Validate() error {
	switch e.Type {
	case EventRecordCreated, EventRecordUpdated, EventRecordDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, e.Type)
	}
	switch e.Kind {
	case KindIncome, KindExpense:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedEvent, e.Kind)
	}
	if e.UserID <= 0 || e.RecordID <= 0 {
		return fmt.Errorf("%w: missing ids", ErrMalformedEvent)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates an event.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
