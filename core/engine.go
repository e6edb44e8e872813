package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fieldsignals/georange/internal/logging"
	"github.com/fieldsignals/georange/model"
)

var (
	ErrNoPosition    = errors.New("no user position known")
	ErrAgentNotFound = errors.New("agent not found")
)

// Recompute triggers, used as metric labels.
const (
	TriggerPosition = "position"
	TriggerRoster   = "roster"
)

// NotifyFunc receives the current in-range set on every recompute pass,
// in roster insertion order. The slice is shared between subscribers of
// the same pass and must not be mutated or retained. Callbacks run
// synchronously inside the triggering update call, so they must be fast
// and must not call back into the engine's update methods.
type NotifyFunc func(inRange []model.Agent)

// MetricsRecorder receives engine-level measurements. Implementations
// must be safe for concurrent use. A nil recorder disables recording.
type MetricsRecorder interface {
	ObserveRecompute(trigger string, rosterSize, inRange int, elapsed time.Duration)
	SetSubscriberCount(n int)
	IncSubscriberFailure()
}

// Engine tracks the user's current position and the deployed agent
// roster, recomputes per-agent great-circle distances and in-range
// membership on every update, and fans the resulting in-range set out to
// subscribers.
//
// One Engine is normally constructed per process and handed to every
// consumer by reference; independent instances are fine in tests. State
// resets only through explicit update calls.
type Engine struct {
	// dispatchMu keeps update passes totally ordered: a notification
	// always carries the (position, roster) snapshot that triggered it,
	// never one that arrived mid-dispatch.
	dispatchMu sync.Mutex

	mu        sync.RWMutex
	pos       *model.Position
	roster    []model.Agent
	index     map[string]int // agent ID -> roster slot
	distances []float64      // aligned with roster; meaningful only when pos != nil
	inRange   []model.Agent  // insertion-order subset of roster

	subs []subscriber

	log     logging.Logger
	metrics MetricsRecorder
}

type subscriber struct {
	id string
	fn NotifyFunc
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger supplies the logger used for subscriber failure reporting.
func WithLogger(log logging.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetricsRecorder wires engine measurements into an external
// collector.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = rec }
}

// NewEngine constructs an engine with no position, an empty roster, and
// no subscribers.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		index: make(map[string]int),
		log:   logging.Noop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UpdateUserPosition replaces the stored user position unconditionally
// and runs a recompute/notify pass. There is no staleness or
// monotonic-timestamp check, and coordinates are not validated here.
func (e *Engine) UpdateUserPosition(pos model.Position) {
	e.runPass(TriggerPosition, func() {
		p := pos
		e.pos = &p
	})
}

// UpdateAgentRoster replaces the entire roster with the supplied
// snapshot and runs a recompute/notify pass. Agents omitted from the
// call are removed; an empty (or nil) slice is valid and yields an empty
// in-range set.
func (e *Engine) UpdateAgentRoster(agents []model.Agent) {
	e.runPass(TriggerRoster, func() {
		e.roster = append([]model.Agent(nil), agents...)
		e.distances = make([]float64, len(e.roster))
		e.index = make(map[string]int, len(e.roster))
		for i, a := range e.roster {
			if _, dup := e.index[a.ID]; !dup {
				e.index[a.ID] = i
			}
		}
	})
}

// DistanceToAgent returns the most recently computed distance in metres
// for the named agent. It reports ErrAgentNotFound when the agent is not
// in the current roster and ErrNoPosition when no user position is known
// yet; roster membership is checked first since it holds regardless of
// position. Pure read, no side effects.
func (e *Engine) DistanceToAgent(id string) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	slot, ok := e.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrAgentNotFound, id)
	}
	if e.pos == nil {
		return 0, ErrNoPosition
	}
	return e.distances[slot], nil
}

// InRange returns a copy of the most recently computed in-range set, in
// roster insertion order.
func (e *Engine) InRange() []model.Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]model.Agent(nil), e.inRange...)
}

// Roster returns a copy of the current agent roster.
func (e *Engine) Roster() []model.Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]model.Agent(nil), e.roster...)
}

// SubscriberCount returns the number of active subscriptions.
func (e *Engine) SubscriberCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

// UserPosition returns the latest position fix and whether one is known.
func (e *Engine) UserPosition() (model.Position, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pos == nil {
		return model.Position{}, false
	}
	return *e.pos, true
}

// runPass applies a state mutation, recomputes range membership, and
// delivers the resulting in-range set to every subscriber in
// subscription order. Subscribers are notified on every pass, not only
// when the set changes; consumers that care about transitions diff on
// their side.
func (e *Engine) runPass(trigger string, mutate func()) {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	start := time.Now()

	e.mu.Lock()
	mutate()
	e.recomputeLocked()
	set := append([]model.Agent(nil), e.inRange...)
	rosterSize := len(e.roster)
	subs := append([]subscriber(nil), e.subs...)
	e.mu.Unlock()

	for _, sub := range subs {
		// A cancellation that raced this pass wins: skip subscribers
		// that are no longer registered.
		if !e.isSubscribed(sub.id) {
			continue
		}
		e.deliver(sub, set)
	}

	if e.metrics != nil {
		e.metrics.ObserveRecompute(trigger, rosterSize, len(set), time.Since(start))
	}
}

// recomputeLocked rebuilds distances and the in-range set from the
// current (position, roster) pair. Caller must hold e.mu (write lock).
func (e *Engine) recomputeLocked() {
	e.inRange = e.inRange[:0]
	if e.pos == nil {
		// Distance is undefined without a position; no agent is in range.
		return
	}
	user := e.pos.Coordinate
	for i, a := range e.roster {
		d := HaversineMeters(user, a.Coordinate)
		e.distances[i] = d
		if d <= a.EffectiveRadiusMeters() {
			e.inRange = append(e.inRange, a)
		}
	}
}

func (e *Engine) isSubscribed(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, s := range e.subs {
		if s.id == id {
			return true
		}
	}
	return false
}

// deliver invokes one subscriber, isolating panics so a misbehaving
// consumer cannot starve the rest of the registry or abort the pass.
func (e *Engine) deliver(sub subscriber, set []model.Agent) {
	defer func() {
		if r := recover(); r != nil {
			if e.metrics != nil {
				e.metrics.IncSubscriberFailure()
			}
			e.log.Error(context.Background(), "range subscriber panicked",
				logging.String("subscription_id", sub.id),
				logging.Any("panic", r),
			)
		}
	}()
	sub.fn(set)
}
