package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventType names a change to the ledger.
type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
	BudgetCreated      EventType = "budget.created"
	BudgetUpdated      EventType = "budget.updated"
	BudgetDeleted      EventType = "budget.deleted"
	GoalCreated        EventType = "goal.created"
	GoalUpdated        EventType = "goal.updated"
	GoalDeleted        EventType = "goal.deleted"
	GoalContributed    EventType = "goal.contributed"
)

// Entity returns the entity part of the event type ("transaction", "budget", "goal").
func (t EventType) Entity() string {
	entity, _, _ := strings.Cut(string(t), ".")
	return entity
}

// Action returns the verb part of the event type ("created", "deleted", ...).
func (t EventType) Action() string {
	_, action, _ := strings.Cut(string(t), ".")
	return action
}

// LedgerEvent is a lightweight notification that an entity changed. Consumers
// fetch the current state from the store rather than trusting the payload.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	EntityID  string    `json:"entity_id"`
	Month     string    `json:"month,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps a new event with the current time.
func NewLedgerEvent(t EventType, entityID, month, category string) LedgerEvent {
	return LedgerEvent{
		Type:      t,
		EntityID:  entityID,
		Month:     month,
		Category:  category,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and validates an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, errors.New("ledger event without type")
	}
	if msg.EntityID == "" {
		return nil, fmt.Errorf("ledger event %s without entity id", msg.Type)
	}
	return &msg, nil
}
