package feed

import (
	"testing"
	"time"

	"github.com/fieldsignals/georange/core"
	"github.com/fieldsignals/georange/model"
)

func TestPositionFeedTickPushesFix(t *testing.T) {
	engine := core.NewEngine()
	engine.UpdateAgentRoster([]model.Agent{{
		ID:         "a1",
		Coordinate: model.Coordinate{Latitude: 37.7750, Longitude: -122.4194},
	}})

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	pf := &PositionFeed{
		Engine: engine,
		Source: Static{At: model.Coordinate{Latitude: 37.7749, Longitude: -122.4194}},
		Now:    func() time.Time { return at },
	}
	pf.Tick()

	pos, ok := engine.UserPosition()
	if !ok {
		t.Fatalf("engine has no position after Tick")
	}
	if !pos.CapturedAt.Equal(at) {
		t.Fatalf("captured_at = %v, want %v", pos.CapturedAt, at)
	}
	if got := len(engine.InRange()); got != 1 {
		t.Fatalf("in-range count after Tick = %d, want 1", got)
	}
}
