// Package feed contains stand-ins for the range engine's external
// collaborators: a simulated device location stream and a periodic
// roster provider.
package feed

import (
	"context"
	"time"

	"github.com/fieldsignals/georange/core"
)

// PositionFeed drives the engine from a PositionSource on a fixed
// cadence, standing in for a device GPS stream. The engine places no
// constraint on cadence or jitter.
type PositionFeed struct {
	Engine   *core.Engine
	Source   PositionSource
	Interval time.Duration    // defaults to 1s when non-positive
	Now      func() time.Time // defaults to time.Now; injectable for tests
}

// Tick pushes a single fix into the engine.
func (pf *PositionFeed) Tick() {
	now := pf.Now
	if now == nil {
		now = time.Now
	}
	pf.Engine.UpdateUserPosition(pf.Source.PositionAt(now()))
}

// Run ticks until ctx is done.
func (pf *PositionFeed) Run(ctx context.Context) {
	interval := pf.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pf.Tick()
		}
	}
}
