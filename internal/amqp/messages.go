package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventAction names the mutation a TransactionEvent reports.
type EventAction string

const (
	ActionAdded   EventAction = "added"
	ActionRemoved EventAction = "removed"
)

// TransactionEvent announces a change to the transaction list. It carries
// only the id; consumers reload the persisted snapshot.
type TransactionEvent struct {
	Action    EventAction `json:"action"`
	ID        int64       `json:"id"`
	Revision  uint64      `json:"revision"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewTransactionEvent(action EventAction, id int64, revision uint64) TransactionEvent {
	return TransactionEvent{
		Action:    action,
		ID:        id,
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates an event body.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return TransactionEvent{}, err
	}
	switch e.Action {
	case ActionAdded, ActionRemoved:
	default:
		return TransactionEvent{}, fmt.Errorf("unknown action %q", e.Action)
	}
	return e, nil
}
