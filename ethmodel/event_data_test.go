package ethmodel

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEvent_MapsEachVariant(t *testing.T) {
	from := common.HexToAddress("0x00000000000000000000000000000000000aa0")
	to := common.HexToAddress("0x00000000000000000000000000000000000bb0")
	value := big.NewInt(42)

	approval := FromEvent(NewApproval(from, to, value))
	assert.Equal(t, EventTypeApprove, approval.EventType.Type)
	require.NotNil(t, approval.EventType.From)
	require.NotNil(t, approval.EventType.To)
	assert.Equal(t, from.Hex(), *approval.EventType.From)
	assert.Equal(t, to.Hex(), *approval.EventType.To)
	assert.Equal(t, "42", approval.Value)

	transfer := FromEvent(NewTransfer(from, to, value))
	assert.Equal(t, EventTypeTransfer, transfer.EventType.Type)

	deposit := FromEvent(NewDeposit(to, value))
	assert.Equal(t, EventTypeDeposit, deposit.EventType.Type)
	assert.Nil(t, deposit.EventType.From)
	require.NotNil(t, deposit.EventType.To)

	withdrawal := FromEvent(NewWithdrawal(from, value))
	assert.Equal(t, EventTypeWithdrawal, withdrawal.EventType.Type)
	assert.Nil(t, withdrawal.EventType.To)
	require.NotNil(t, withdrawal.EventType.From)
}

func TestEventData_JSONRoundTrip(t *testing.T) {
	from := common.HexToAddress("0x00000000000000000000000000000000000aa0")
	to := common.HexToAddress("0x00000000000000000000000000000000000bb0")
	data := FromEvent(NewTransfer(from, to, big.NewInt(1000)))

	raw, err := data.Value()
	require.NoError(t, err)

	var roundTripped EventData
	require.NoError(t, roundTripped.Scan(raw))

	assert.Equal(t, data, roundTripped)
}

func TestValidEventTypeTag(t *testing.T) {
	assert.True(t, ValidEventTypeTag("Approve"))
	assert.True(t, ValidEventTypeTag("Transfer"))
	assert.True(t, ValidEventTypeTag("Deposit"))
	assert.True(t, ValidEventTypeTag("Withdrawal"))
	assert.False(t, ValidEventTypeTag("Approval"))
	assert.False(t, ValidEventTypeTag(""))
}

func TestEventData_ValueBigInt(t *testing.T) {
	data := EventData{Value: "123456789"}
	assert.Equal(t, big.NewInt(123456789), data.ValueBigInt())

	malformed := EventData{Value: "not-a-number"}
	assert.Nil(t, malformed.ValueBigInt())
}
