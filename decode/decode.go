// Package decode turns a raw Ethereum log into a typed ethmodel.Event.
// Decode is pure: no I/O, no blocking, no unbounded allocation, and
// equal inputs always yield equal outputs.
package decode

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"ethlog/apperr"
	"ethlog/ethmodel"
)

// Precomputed event signature hashes, matched against topic0.
var (
	approvalTopic   = crypto.Keccak256Hash([]byte("Approval(address,address,uint256)"))
	transferTopic   = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	depositTopic    = crypto.Keccak256Hash([]byte("Deposit(address,uint256)"))
	withdrawalTopic = crypto.Keccak256Hash([]byte("Withdrawal(address,uint256)"))
)

// ErrUnrecognizedTopic is returned when topic0 doesn't match any of the
// four known event signatures. It is not a hard failure: callers
// should log a warning and drop the log, not treat this as DecodeError.
var ErrUnrecognizedTopic = errors.New("decode: unrecognized event signature")

// Decode matches log.Topics[0] against the four known WETH-style
// event signatures and unpacks the indexed topics and value from the
// remaining topics and data.
func Decode(log types.Log) (ethmodel.Event, error) {
	if len(log.Topics) == 0 {
		return ethmodel.Event{}, apperr.New(apperr.DecodeError, "log has no topics", nil)
	}

	switch log.Topics[0] {
	case approvalTopic:
		from, to, err := twoAddressTopics(log)
		if err != nil {
			return ethmodel.Event{}, err
		}
		value, err := decodeValue(log)
		if err != nil {
			return ethmodel.Event{}, err
		}
		return ethmodel.NewApproval(from, to, value), nil

	case transferTopic:
		from, to, err := twoAddressTopics(log)
		if err != nil {
			return ethmodel.Event{}, err
		}
		value, err := decodeValue(log)
		if err != nil {
			return ethmodel.Event{}, err
		}
		return ethmodel.NewTransfer(from, to, value), nil

	case depositTopic:
		to, err := oneAddressTopic(log)
		if err != nil {
			return ethmodel.Event{}, err
		}
		value, err := decodeValue(log)
		if err != nil {
			return ethmodel.Event{}, err
		}
		return ethmodel.NewDeposit(to, value), nil

	case withdrawalTopic:
		from, err := oneAddressTopic(log)
		if err != nil {
			return ethmodel.Event{}, err
		}
		value, err := decodeValue(log)
		if err != nil {
			return ethmodel.Event{}, err
		}
		return ethmodel.NewWithdrawal(from, value), nil

	default:
		return ethmodel.Event{}, ErrUnrecognizedTopic
	}
}

func twoAddressTopics(log types.Log) (common.Address, common.Address, error) {
	if len(log.Topics) < 3 {
		return common.Address{}, common.Address{}, apperr.New(apperr.DecodeError, "expected 3 topics for a two-address event", nil)
	}
	return common.BytesToAddress(log.Topics[1].Bytes()), common.BytesToAddress(log.Topics[2].Bytes()), nil
}

func oneAddressTopic(log types.Log) (common.Address, error) {
	if len(log.Topics) < 2 {
		return common.Address{}, apperr.New(apperr.DecodeError, "expected 2 topics for a one-address event", nil)
	}
	return common.BytesToAddress(log.Topics[1].Bytes()), nil
}

func decodeValue(log types.Log) (*big.Int, error) {
	if len(log.Data) == 0 {
		return nil, apperr.New(apperr.DecodeError, "log data empty, expected encoded uint256 value", nil)
	}
	return new(big.Int).SetBytes(log.Data), nil
}
