// Package ingest implements the channel-mediated glue between the
// Subscriber and the Event Store: a single serial worker that persists
// decoded events in arrival order and fans out persisted records to an
// optional downstream observer.
package ingest

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"ethlog/ethmodel"
)

// Saver is the persistence dependency the pipeline worker consumes. It
// is satisfied by *store.Store; tests substitute a fake.
type Saver interface {
	Save(data ethmodel.EventData) (ethmodel.EventRecord, error)
}

// fanOutBuffer is how many persisted records may wait unread on the
// outbound channel before further records are dropped.
const fanOutBuffer = 1024

// Start spawns the single serial ingest worker. It consumes decoded
// events from inbound until inbound is closed, persisting each via
// saver in arrival order, then drains, closes the returned outbound
// channel, and closes done.
//
// Persistence errors are logged and skipped: the worker never
// terminates because one save failed. Forwarding to outbound is
// best-effort: records are buffered for the observer, and once
// fanOutBuffer records are waiting unread, further records are dropped
// since they are already durably persisted.
// lastPersistedID, if non-nil, is updated with each successfully
// persisted record's id. It exists so the admin diagnostics endpoint
// can report ingest progress without touching the store directly.
func Start(inbound <-chan ethmodel.Event, saver Saver, lastPersistedID *atomic.Uint64) (outbound <-chan ethmodel.EventRecord, done <-chan struct{}) {
	out := make(chan ethmodel.EventRecord, fanOutBuffer)
	d := make(chan struct{})

	go func() {
		defer close(d)
		defer close(out)

		for event := range inbound {
			data := ethmodel.FromEvent(event)

			record, err := saver.Save(data)
			if err != nil {
				log.Error().Err(err).Str("event_type", string(data.EventType.Type)).Msg("ingest: failed to persist event, continuing")
				continue
			}

			if lastPersistedID != nil {
				lastPersistedID.Store(record.ID)
			}

			select {
			case out <- record:
			default:
				log.Debug().Uint64("id", record.ID).Msg("ingest: no fan-out receiver, dropping forwarded record")
			}
		}
	}()

	return out, d
}
