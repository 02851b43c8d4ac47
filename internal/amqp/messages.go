package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the entity a change message refers to.
type Kind string

const (
	KindCompany Kind = "company"
	KindRecord  Kind = "record"
)

// Action is what happened to the entity.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// ChangeMessage announces that a company or one of its quarterly records changed.
// It carries identifiers only; consumers reload the current state from storage.
type ChangeMessage struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Action    Action    `json:"action"`
	CompanyID string    `json:"company_id"`
	Ticker    string    `json:"ticker,omitempty"`
	RecordID  string    `json:"record_id,omitempty"`
	Quarter   string    `json:"quarter,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCompanyChange creates a message for a company-level change.
func NewCompanyChange(action Action, companyID, ticker string) *ChangeMessage {
	return &ChangeMessage{
		ID:        uuid.NewString(),
		Kind:      KindCompany,
		Action:    action,
		CompanyID: companyID,
		Ticker:    ticker,
		Timestamp: time.Now(),
	}
}

// NewRecordChange creates a message for a change to one quarterly record.
func NewRecordChange(action Action, companyID, recordID, quarter string) *ChangeMessage {
	return &ChangeMessage{
		ID:        uuid.NewString(),
		Kind:      KindRecord,
		Action:    action,
		CompanyID: companyID,
		RecordID:  recordID,
		Quarter:   quarter,
		Timestamp: time.Now(),
	}
}

// Validate checks the fields every consumer relies on.
func (m *ChangeMessage) Validate() error {
	switch m.Kind {
	case KindCompany, KindRecord:
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	switch m.Action {
	case ActionUpsert, ActionDelete:
	default:
		return fmt.Errorf("unknown message action %q", m.Action)
	}
	if m.CompanyID == "" {
		return fmt.Errorf("message %s has no company id", m.ID)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
