// Package ethmodel defines the closed set of event variants this
// service ingests and the structured document shape they are persisted
// under. It has no internal dependencies: it imports nothing from the
// rest of this module.
package ethmodel

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind tags the wire/in-memory Event variant. Note this is
// deliberately distinct from EventTypeTag: the wire form uses
// "Approval", the persisted form uses "Approve". Keep them separate —
// do not collapse one into the other.
type EventKind int

const (
	EventKindApproval EventKind = iota
	EventKindTransfer
	EventKindDeposit
	EventKindWithdrawal
)

func (k EventKind) String() string {
	switch k {
	case EventKindApproval:
		return "Approval"
	case EventKindTransfer:
		return "Transfer"
	case EventKindDeposit:
		return "Deposit"
	case EventKindWithdrawal:
		return "Withdrawal"
	default:
		return "Unknown"
	}
}

// Event is the decoded, in-memory representation of one log emitted by
// the watched contract. Only the fields relevant to Kind are
// populated; e.g. a Deposit event leaves From as the zero address.
type Event struct {
	Kind  EventKind
	From  common.Address
	To    common.Address
	Value *big.Int
}

// NewApproval builds an Approval event.
func NewApproval(from, to common.Address, value *big.Int) Event {
	return Event{Kind: EventKindApproval, From: from, To: to, Value: value}
}

// NewTransfer builds a Transfer event.
func NewTransfer(from, to common.Address, value *big.Int) Event {
	return Event{Kind: EventKindTransfer, From: from, To: to, Value: value}
}

// NewDeposit builds a Deposit event.
func NewDeposit(to common.Address, value *big.Int) Event {
	return Event{Kind: EventKindDeposit, To: to, Value: value}
}

// NewWithdrawal builds a Withdrawal event.
func NewWithdrawal(from common.Address, value *big.Int) Event {
	return Event{Kind: EventKindWithdrawal, From: from, Value: value}
}
