// Package store holds the per-feature selection state: the user's current
// request parameters, the last computed result, and the lifecycle of every
// compute action. Each feature area gets its own narrowly-scoped store;
// nothing here is shared between features except through snapshots.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// State is the compute lifecycle of one store.
type State string

const (
	// StateIdle means no compute has been triggered, or an upstream site
	// change discarded the cached result.
	StateIdle State = "idle"
	// StateLoading means a compute action has an in-flight request.
	StateLoading State = "loading"
	// StateSucceeded means the last result passed validation and derived
	// views are available.
	StateSucceeded State = "succeeded"
	// StateFailed means the last compute failed validation or transport.
	StateFailed State = "failed"
)

// ErrSuperseded reports that a newer compute action replaced this one before
// it finished. Callers treat it as a no-op, never as a failure.
var ErrSuperseded = errors.New("compute superseded by a newer request")

// lifecycle implements the superseding compute slot every store embeds:
// one outstanding request per store, last-writer-wins, no queueing. The
// mutex also guards the embedding store's data fields.
type lifecycle struct {
	mu       sync.Mutex
	state    State
	gen      uint64
	cancel   context.CancelFunc
	actionID string
	failure  error

	// The state begin replaced, restored if that attempt is cancelled.
	prevState    State
	prevActionID string
	prevFailure  error
}

// begin opens a new compute attempt, cancelling any previous in-flight one.
// The returned generation must be handed back to finish.
func (l *lifecycle) begin(parent context.Context) (context.Context, uint64, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.gen++
	l.prevState = l.state
	l.prevActionID = l.actionID
	l.prevFailure = l.failure
	l.actionID = uuid.NewString()
	l.state = StateLoading
	l.failure = nil
	return ctx, l.gen, l.actionID
}

// finish commits the outcome of a compute attempt. A stale generation means
// a newer attempt superseded this one: no state is written. A caller-side
// cancellation rolls the lifecycle back to whatever begin replaced, so the
// store never sits in Loading with nothing in flight. Otherwise the commit
// callback runs under the lock and its error decides between Succeeded and
// Failed.
func (l *lifecycle) finish(gen uint64, callErr error, commit func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return ErrSuperseded
	}
	if callErr != nil {
		if errors.Is(callErr, context.Canceled) {
			l.state = l.prevState
			l.actionID = l.prevActionID
			l.failure = l.prevFailure
			return callErr
		}
		l.state = StateFailed
		l.failure = callErr
		return callErr
	}
	if err := commit(); err != nil {
		l.state = StateFailed
		l.failure = err
		return err
	}
	l.state = StateSucceeded
	l.failure = nil
	return nil
}

// reset discards the cached result and cancels in-flight work. Used when an
// upstream site or ensemble change invalidates everything downstream.
func (l *lifecycle) reset(clear func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
	l.state = StateIdle
	l.actionID = ""
	l.failure = nil
	if clear != nil {
		clear()
	}
}

// status reads the lifecycle fields for a snapshot.
func (l *lifecycle) status() (State, string, string) {
	state := l.state
	if state == "" {
		state = StateIdle
	}
	message := ""
	if l.failure != nil {
		message = l.failure.Error()
	}
	return state, l.actionID, message
}
