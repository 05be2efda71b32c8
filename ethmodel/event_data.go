package ethmodel

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventTypeTag is the persisted discriminant string. These four values
// are the only ones the store will ever write or accept as a filter.
type EventTypeTag string

const (
	EventTypeApprove    EventTypeTag = "Approve"
	EventTypeTransfer   EventTypeTag = "Transfer"
	EventTypeDeposit    EventTypeTag = "Deposit"
	EventTypeWithdrawal EventTypeTag = "Withdrawal"
)

// ValidEventTypeTag reports whether s is one of the four recognized
// discriminants, used to reject unknown event_type query parameters
// with a 400 instead of silently matching nothing.
func ValidEventTypeTag(s string) bool {
	switch EventTypeTag(s) {
	case EventTypeApprove, EventTypeTransfer, EventTypeDeposit, EventTypeWithdrawal:
		return true
	default:
		return false
	}
}

// EventType is the tagged variant stored under EventData.EventType. The
// `type` field is always present; From/To are present only for the
// variants that carry them, keeping the JSON shape narrow enough to
// match spec's per-variant payloads exactly.
type EventType struct {
	Type EventTypeTag `json:"type"`
	From *string      `json:"from,omitempty"`
	To   *string      `json:"to,omitempty"`
}

// EventData is the structured document persisted in ETH_EVENT.data.
type EventData struct {
	Value     string    `json:"value"`
	EventType EventType `json:"event_type"`
}

// FromEvent maps a decoded wire Event to its persisted EventData shape,
// per the table in spec §4.4.
func FromEvent(e Event) EventData {
	value := "0"
	if e.Value != nil {
		value = e.Value.String()
	}
	switch e.Kind {
	case EventKindApproval:
		from, to := addrStr(e.From), addrStr(e.To)
		return EventData{Value: value, EventType: EventType{Type: EventTypeApprove, From: &from, To: &to}}
	case EventKindTransfer:
		from, to := addrStr(e.From), addrStr(e.To)
		return EventData{Value: value, EventType: EventType{Type: EventTypeTransfer, From: &from, To: &to}}
	case EventKindDeposit:
		to := addrStr(e.To)
		return EventData{Value: value, EventType: EventType{Type: EventTypeDeposit, To: &to}}
	case EventKindWithdrawal:
		from := addrStr(e.From)
		return EventData{Value: value, EventType: EventType{Type: EventTypeWithdrawal, From: &from}}
	default:
		return EventData{Value: value, EventType: EventType{Type: EventTypeTag(e.Kind.String())}}
	}
}

func addrStr(a common.Address) string {
	return a.Hex()
}

// ValueBigInt parses Value as a base-10 U256. Returns nil if Value is
// not a valid integer string.
func (d EventData) ValueBigInt() *big.Int {
	v, ok := new(big.Int).SetString(d.Value, 10)
	if !ok {
		return nil
	}
	return v
}

// Value implements driver.Valuer so GORM can write EventData straight
// into a jsonb column.
func (d EventData) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner so GORM can read a jsonb column back into
// EventData.
func (d *EventData) Scan(src any) error {
	if src == nil {
		*d = EventData{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("ethmodel: cannot scan %T into EventData", src)
	}
	return json.Unmarshal(b, d)
}
