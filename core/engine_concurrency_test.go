package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/fieldsignals/georange/model"
)

// TestConcurrentUpdatesAndReads hammers the engine from independent
// writers (a position stream and a roster refresher) and readers, the
// shape of load the engine sees in production. Run with -race.
func TestConcurrentUpdatesAndReads(t *testing.T) {
	engine := NewEngine()

	const iterations = 200
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			engine.UpdateUserPosition(model.Position{
				Coordinate: model.Coordinate{
					Latitude:  37.7749 + float64(i)*0.00001,
					Longitude: -122.4194,
				},
			})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			roster := make([]model.Agent, 0, 5)
			for j := 0; j < 5; j++ {
				roster = append(roster, model.Agent{
					ID: fmt.Sprintf("agent-%d", j),
					Coordinate: model.Coordinate{
						Latitude:  37.7750 + float64(j)*0.0001,
						Longitude: -122.4194,
					},
				})
			}
			engine.UpdateAgentRoster(roster)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			if _, err := engine.DistanceToAgent("agent-0"); err != nil &&
				!errors.Is(err, ErrAgentNotFound) && !errors.Is(err, ErrNoPosition) {
				t.Errorf("DistanceToAgent: unexpected error %v", err)
				return
			}
			_ = engine.InRange()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			sub := engine.Subscribe(func([]model.Agent) {})
			sub.Cancel()
		}
	}()

	wg.Wait()

	if got := engine.SubscriberCount(); got != 0 {
		t.Fatalf("SubscriberCount = %d, want 0 after all cancellations", got)
	}
}

// TestNotificationSnapshotConsistency checks that a notification carries
// the state that triggered it: every delivered set must be consistent
// with a single roster generation, never a blend.
func TestNotificationSnapshotConsistency(t *testing.T) {
	engine := NewEngine()
	engine.UpdateUserPosition(sfPosition())

	mismatches := 0
	sub := engine.Subscribe(func(inRange []model.Agent) {
		gen := ""
		for _, a := range inRange {
			if gen == "" {
				gen = a.Kind
			} else if a.Kind != gen {
				mismatches++
				return
			}
		}
	})
	defer sub.Cancel()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			gen := fmt.Sprintf("gen-%d", g)
			for i := 0; i < 100; i++ {
				engine.UpdateAgentRoster([]model.Agent{
					{ID: "a", Kind: gen, Coordinate: model.Coordinate{Latitude: 37.7750, Longitude: -122.4194}},
					{ID: "b", Kind: gen, Coordinate: model.Coordinate{Latitude: 37.7751, Longitude: -122.4194}},
				})
			}
		}(g)
	}
	wg.Wait()

	if mismatches != 0 {
		t.Fatalf("observed %d mixed-generation notifications, want 0", mismatches)
	}
}
