// Package subscriber implements the resilient WebSocket subscription
// lifecycle: connect, stream, detect inactivity, reconnect, and
// shut down cooperatively via a shared run flag.
package subscriber

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"ethlog/apperr"
	"ethlog/decode"
	"ethlog/ethmodel"
)

// Subscriber holds connection configuration only; constructing one
// performs no I/O.
type Subscriber struct {
	rpcURL       string
	timeout      time.Duration
	tokenAddress common.Address
}

// New configures a Subscriber against rpcURL, applying timeout as the
// per-subscription inactivity deadline and tokenAddress as the log
// filter's contract address.
func New(rpcURL string, timeout time.Duration, tokenAddress common.Address) *Subscriber {
	return &Subscriber{rpcURL: rpcURL, timeout: timeout, tokenAddress: tokenAddress}
}

// Handle is the join handle returned by Subscribe. Done closes when
// the spawned task exits; Err reports the reason, if any, after Done
// closes. State reflects the task's current position in the lifecycle
// state machine and may be read concurrently.
type Handle struct {
	done  chan struct{}
	err   error
	state atomic.Int32
}

// Done returns a channel that is closed when the subscriber task
// exits.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the reason the task exited. Only meaningful after Done
// has closed; nil means clean shutdown via the run flag or ctx.
func (h *Handle) Err() error {
	return h.err
}

// State reports the task's current lifecycle state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

func (h *Handle) setState(s State) {
	h.state.Store(int32(s))
}

// Subscribe establishes the first WebSocket connection and, on
// success, spawns a long-lived goroutine that streams decoded events
// onto outbound until runFlag is cleared or ctx is done. The first
// connection attempt is made synchronously: if it fails (e.g. a bad
// URL), the error is returned to the caller here rather than causing
// the spawned task to panic, since initial failure is a configuration
// error the caller should be able to react to (see design notes on the
// source's original unwrap-on-first-connect behavior). After the first
// success, every connection failure is retried with backoff; the task
// does not exit because reconnecting keeps failing.
func (s *Subscriber) Subscribe(ctx context.Context, outbound chan<- ethmodel.Event, runFlag *atomic.Bool) (*Handle, error) {
	h := &Handle{done: make(chan struct{})}
	h.setState(StateConnecting)

	client, sub, logsCh, err := s.connect(ctx)
	if err != nil {
		h.setState(StateExited)
		close(h.done)
		return nil, apperr.New(apperr.SubscriptionError, "initial subscription failed", err)
	}
	h.setState(StateStreaming)

	go s.run(ctx, h, outbound, runFlag, client, sub, logsCh)
	return h, nil
}

// connect dials rpcURL and opens a logs subscription filtered to
// tokenAddress starting at the chain's latest block.
func (s *Subscriber) connect(ctx context.Context) (*ethclient.Client, ethereum.Subscription, chan types.Log, error) {
	client, err := ethclient.DialContext(ctx, s.rpcURL)
	if err != nil {
		return nil, nil, nil, err
	}

	query := ethereum.FilterQuery{
		Addresses: []common.Address{s.tokenAddress},
	}

	logsCh := make(chan types.Log)
	sub, err := client.SubscribeFilterLogs(ctx, query, logsCh)
	if err != nil {
		client.Close()
		return nil, nil, nil, err
	}

	return client, sub, logsCh, nil
}

func (s *Subscriber) run(ctx context.Context, h *Handle, outbound chan<- ethmodel.Event, runFlag *atomic.Bool, client *ethclient.Client, sub ethereum.Subscription, logsCh chan types.Log) {
	defer close(h.done)

	attempt := 0
	for {
		if !runFlag.Load() {
			log.Info().Msg("subscriber: run flag cleared, shutting down")
			h.setState(StateDraining)
			client.Close()
			sub.Unsubscribe()
			h.setState(StateExited)
			return
		}

		select {
		case <-ctx.Done():
			client.Close()
			sub.Unsubscribe()
			h.setState(StateExited)
			return

		case vLog, ok := <-logsCh:
			if !ok {
				log.Warn().Msg("subscriber: log stream closed, reconnecting")
				client.Close()
				sub.Unsubscribe()
				if !s.reconnect(ctx, h, &client, &sub, &logsCh, &attempt, runFlag) {
					return
				}
				continue
			}
			attempt = 0
			s.handleLog(vLog, outbound)

		case subErr := <-sub.Err():
			log.Warn().Err(subErr).Msg("subscriber: subscription error, reconnecting")
			client.Close()
			if !s.reconnect(ctx, h, &client, &sub, &logsCh, &attempt, runFlag) {
				return
			}

		case <-time.After(s.timeout):
			log.Warn().Dur("timeout", s.timeout).Msg("subscriber: no activity, reconnecting")
			client.Close()
			sub.Unsubscribe()
			if !s.reconnect(ctx, h, &client, &sub, &logsCh, &attempt, runFlag) {
				return
			}
		}
	}
}

// reconnect attempts to re-establish the connection with capped
// exponential backoff, retrying until runFlag is cleared or ctx is
// done. Returns false if the task should terminate.
func (s *Subscriber) reconnect(ctx context.Context, h *Handle, client **ethclient.Client, sub *ethereum.Subscription, logsCh *chan types.Log, attempt *int, runFlag *atomic.Bool) bool {
	h.setState(StateReconnecting)

	for {
		if !runFlag.Load() {
			h.setState(StateExited)
			return false
		}
		select {
		case <-ctx.Done():
			h.setState(StateExited)
			return false
		default:
		}

		backoff := calculateBackoff(*attempt)
		log.Info().Dur("backoff", backoff).Int("attempt", *attempt).Msg("subscriber: waiting before reconnect")

		select {
		case <-ctx.Done():
			h.setState(StateExited)
			return false
		case <-time.After(backoff):
		}

		newClient, newSub, newLogsCh, err := s.connect(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("subscriber: reconnect attempt failed")
			*attempt++
			continue
		}

		*client, *sub, *logsCh = newClient, newSub, newLogsCh
		*attempt = 0
		h.setState(StateStreaming)
		return true
	}
}

func (s *Subscriber) handleLog(vLog types.Log, outbound chan<- ethmodel.Event) {
	event, err := decode.Decode(vLog)
	if err != nil {
		if err == decode.ErrUnrecognizedTopic {
			log.Warn().Str("tx_hash", vLog.TxHash.Hex()).Msg("subscriber: unrecognized event signature, dropping")
			return
		}
		log.Error().Err(err).Str("tx_hash", vLog.TxHash.Hex()).Msg("subscriber: decode error, dropping log")
		return
	}
	outbound <- event
}
