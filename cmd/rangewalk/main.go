package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fieldsignals/georange/core"
	"github.com/fieldsignals/georange/internal/feed"
	"github.com/fieldsignals/georange/model"
)

func main() {
	agentsPath := flag.String("agents", "configs/agents.json", "path to a JSON agent deployment file")
	duration := flag.Duration("duration", 60*time.Second, "total walk duration")
	tick := flag.Duration("tick", 1*time.Second, "position update interval")
	speed := flag.Float64("speed", 1.4, "walking speed in metres per second")
	lat := flag.Float64("lat", 37.7749, "start latitude")
	lon := flag.Float64("lon", -122.4194, "start longitude")
	flag.Parse()

	engine := core.NewEngine()

	f, err := os.Open(*agentsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open deployment %q: %v\n", *agentsPath, err)
		os.Exit(1)
	}
	agents, summary, err := core.LoadDeployment(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load deployment: %v\n", err)
		os.Exit(1)
	}
	engine.UpdateAgentRoster(agents)
	fmt.Printf("Loaded deployment: %d agents\n", len(summary.AgentIDs))

	// Walk a small loop around the start point: roughly a 200m x 200m
	// block at mid latitudes.
	start := model.Coordinate{Latitude: *lat, Longitude: *lon}
	walker := feed.NewWalker(time.Now(), *speed, true,
		start,
		model.Coordinate{Latitude: *lat + 0.0018, Longitude: *lon},
		model.Coordinate{Latitude: *lat + 0.0018, Longitude: *lon + 0.0023},
		model.Coordinate{Latitude: *lat, Longitude: *lon + 0.0023},
		start,
	)

	// Print enter/leave transitions. The engine reports the full set on
	// every pass, so the diff lives here.
	inRange := make(map[string]bool)
	sub := engine.Subscribe(func(set []model.Agent) {
		entered, left, next := diffInRange(inRange, set)
		inRange = next
		sort.Strings(entered)
		sort.Strings(left)
		for _, id := range entered {
			fmt.Printf("  + %s %s\n", id, formatDistance(engine, id))
		}
		for _, id := range left {
			fmt.Printf("  - %s %s\n", id, formatDistance(engine, id))
		}
	})
	defer sub.Cancel()

	fmt.Printf("Starting walk: duration=%s, tick=%s, speed=%.1f m/s\n", *duration, *tick, *speed)

	ticker := time.NewTicker(*tick)
	defer ticker.Stop()
	deadline := time.Now().Add(*duration)

	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		pos := walker.PositionAt(now)
		engine.UpdateUserPosition(pos)
		fmt.Printf("[%s] user @ (%.5f, %.5f), in range: %d\n",
			now.Format(time.RFC3339),
			pos.Latitude, pos.Longitude,
			len(engine.InRange()),
		)
	}

	fmt.Println("Walk complete.")
}

// formatDistance renders "(42m away)" style text for transition lines,
// tolerating agents that just left the roster.
func formatDistance(engine *core.Engine, id string) string {
	d, err := engine.DistanceToAgent(id)
	switch {
	case errors.Is(err, core.ErrAgentNotFound), errors.Is(err, core.ErrNoPosition):
		return "(distance unknown)"
	case err != nil:
		return "(distance unknown)"
	default:
		return fmt.Sprintf("(%.0fm away)", d)
	}
}
