package feed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fieldsignals/georange/core"
	"github.com/fieldsignals/georange/internal/logging"
)

// RosterRefresher periodically re-reads an agent deployment file and
// replaces the engine roster wholesale, keeping the file authoritative:
// agents missing from the file are removed by the replacement semantics
// of UpdateAgentRoster.
type RosterRefresher struct {
	Engine   *core.Engine
	Path     string
	Interval time.Duration // defaults to 30s when non-positive
	Log      logging.Logger
}

// RefreshOnce loads the deployment file and pushes the full roster into
// the engine.
func (rr *RosterRefresher) RefreshOnce(ctx context.Context) error {
	f, err := os.Open(rr.Path)
	if err != nil {
		return fmt.Errorf("open deployment: %w", err)
	}
	defer f.Close()

	agents, summary, err := core.LoadDeployment(f)
	if err != nil {
		return err
	}

	rr.Engine.UpdateAgentRoster(agents)
	rr.logger().Debug(ctx, "agent roster refreshed",
		logging.String("path", rr.Path),
		logging.Int("agents", len(summary.AgentIDs)),
	)
	return nil
}

// Run refreshes immediately and then on every tick until ctx is done. A
// failed refresh keeps the previous roster and is retried on the next
// tick.
func (rr *RosterRefresher) Run(ctx context.Context) {
	if err := rr.RefreshOnce(ctx); err != nil {
		rr.logger().Warn(ctx, "initial roster load failed", logging.Err(err))
	}

	interval := rr.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rr.RefreshOnce(ctx); err != nil {
				rr.logger().Warn(ctx, "roster refresh failed", logging.Err(err))
			}
		}
	}
}

func (rr *RosterRefresher) logger() logging.Logger {
	if rr.Log != nil {
		return rr.Log
	}
	return logging.Noop()
}
