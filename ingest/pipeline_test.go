package ingest

import (
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethlog/ethmodel"
)

// fakeSaver assigns ids sequentially and can be made to fail on
// specific calls, simulating transient storage errors.
type fakeSaver struct {
	mu       sync.Mutex
	nextID   uint64
	failOn   map[uint64]bool
	saved    []ethmodel.EventData
}

func newFakeSaver() *fakeSaver {
	return &fakeSaver{nextID: 1, failOn: map[uint64]bool{}}
}

func (f *fakeSaver) Save(data ethmodel.EventData) (ethmodel.EventRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := f.nextID
	f.nextID++

	if f.failOn[call] {
		return ethmodel.EventRecord{}, fmt.Errorf("simulated failure on call %d", call)
	}

	f.saved = append(f.saved, data)
	return ethmodel.EventRecord{ID: call, Data: data}, nil
}

func TestPipeline_PersistsInArrivalOrder(t *testing.T) {
	saver := newFakeSaver()
	inbound := make(chan ethmodel.Event)
	var lastID atomic.Uint64

	outbound, done := Start(inbound, saver, &lastID)

	var received []ethmodel.EventRecord
	recvDone := make(chan struct{})
	go func() {
		for record := range outbound {
			received = append(received, record)
		}
		close(recvDone)
	}()

	addr := common.HexToAddress("0x00000000000000000000000000000000000aaa")
	const n = 50
	for i := 0; i < n; i++ {
		inbound <- ethmodel.NewDeposit(addr, big.NewInt(int64(i)))
	}
	close(inbound)

	<-done
	<-recvDone

	require.Len(t, received, n)
	for i, record := range received {
		assert.Equal(t, fmt.Sprintf("%d", i), record.Data.Value)
	}
	assert.Equal(t, uint64(n), lastID.Load())
}

func TestPipeline_ContinuesAfterSaveError(t *testing.T) {
	saver := newFakeSaver()
	saver.failOn[2] = true // the second Save call fails

	inbound := make(chan ethmodel.Event)
	var lastID atomic.Uint64
	outbound, done := Start(inbound, saver, &lastID)

	var received []ethmodel.EventRecord
	recvDone := make(chan struct{})
	go func() {
		for record := range outbound {
			received = append(received, record)
		}
		close(recvDone)
	}()

	addr := common.HexToAddress("0x00000000000000000000000000000000000aaa")
	for i := 0; i < 3; i++ {
		inbound <- ethmodel.NewDeposit(addr, big.NewInt(int64(i)))
	}
	close(inbound)

	<-done
	<-recvDone

	// 3 events went in, one failed to persist, so 2 records came out and
	// the worker did not terminate early.
	assert.Len(t, received, 2)
}

func TestPipeline_DropsFanOutWhenNoReceiver(t *testing.T) {
	saver := newFakeSaver()
	inbound := make(chan ethmodel.Event)
	var lastID atomic.Uint64

	_, done := Start(inbound, saver, &lastID)

	addr := common.HexToAddress("0x00000000000000000000000000000000000aaa")
	inbound <- ethmodel.NewDeposit(addr, big.NewInt(1))
	close(inbound)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pipeline did not shut down when outbound had no receiver")
	}

	assert.Equal(t, uint64(1), lastID.Load())
}
