package core

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fieldsignals/georange/model"
)

// Subscription is the cancellation handle returned by Subscribe. Its
// only capability is removing the associated callback from the engine's
// registry. Cancel is idempotent and safe to call concurrently with
// update passes.
type Subscription struct {
	id     string
	engine *Engine
	once   sync.Once
}

// Cancel removes the subscription. After Cancel returns, the callback
// receives no further notifications. Calling it again is a no-op.
func (s *Subscription) Cancel() {
	if s == nil || s.engine == nil {
		return
	}
	s.once.Do(func() {
		s.engine.removeSubscriber(s.id)
	})
}

// Subscribe registers fn to be invoked with the full in-range set on
// every recompute pass that occurs after registration; past state is
// never replayed. Subscribers are notified in subscription order.
func (e *Engine) Subscribe(fn NotifyFunc) *Subscription {
	if fn == nil {
		fn = func([]model.Agent) {}
	}
	sub := subscriber{id: uuid.NewString(), fn: fn}

	e.mu.Lock()
	e.subs = append(e.subs, sub)
	n := len(e.subs)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.SetSubscriberCount(n)
	}
	return &Subscription{id: sub.id, engine: e}
}

func (e *Engine) removeSubscriber(id string) {
	e.mu.Lock()
	kept := make([]subscriber, 0, len(e.subs))
	for _, s := range e.subs {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	e.subs = kept
	n := len(e.subs)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.SetSubscriberCount(n)
	}
}
