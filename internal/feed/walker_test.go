package feed

import (
	"math"
	"testing"
	"time"

	"github.com/fieldsignals/georange/core"
	"github.com/fieldsignals/georange/model"
)

var (
	legStart = model.Coordinate{Latitude: 37.7749, Longitude: -122.4194}
	legEnd   = model.Coordinate{Latitude: 37.7759, Longitude: -122.4194} // ~111m due north
)

func TestStaticSource(t *testing.T) {
	at := time.Now()
	pos := Static{At: legStart}.PositionAt(at)
	if pos.Coordinate != legStart {
		t.Fatalf("coordinate = %+v, want %+v", pos.Coordinate, legStart)
	}
	if !pos.CapturedAt.Equal(at) {
		t.Fatalf("captured_at = %v, want %v", pos.CapturedAt, at)
	}
}

func TestWalkerStartsAtFirstWaypoint(t *testing.T) {
	start := time.Now()
	w := NewWalker(start, 1.4, false, legStart, legEnd)

	pos := w.PositionAt(start)
	if pos.Coordinate != legStart {
		t.Fatalf("position at departure = %+v, want %+v", pos.Coordinate, legStart)
	}

	// Before departure the walker has not moved.
	pos = w.PositionAt(start.Add(-time.Minute))
	if pos.Coordinate != legStart {
		t.Fatalf("position before departure = %+v, want %+v", pos.Coordinate, legStart)
	}
}

func TestWalkerInterpolatesAlongLeg(t *testing.T) {
	start := time.Now()
	legMeters := core.HaversineMeters(legStart, legEnd)
	speed := 2.0 // m/s
	w := NewWalker(start, speed, false, legStart, legEnd)

	// Halfway through the leg in time means halfway in latitude.
	half := time.Duration(legMeters / speed / 2 * float64(time.Second))
	pos := w.PositionAt(start.Add(half))

	wantLat := (legStart.Latitude + legEnd.Latitude) / 2
	if math.Abs(pos.Coordinate.Latitude-wantLat) > 1e-5 {
		t.Fatalf("midpoint latitude = %v, want ~%v", pos.Coordinate.Latitude, wantLat)
	}
	if pos.Coordinate.Longitude != legStart.Longitude {
		t.Fatalf("longitude drifted to %v on a due-north leg", pos.Coordinate.Longitude)
	}
}

func TestWalkerStopsAtFinalWaypoint(t *testing.T) {
	start := time.Now()
	w := NewWalker(start, 10, false, legStart, legEnd)

	pos := w.PositionAt(start.Add(time.Hour))
	if pos.Coordinate != legEnd {
		t.Fatalf("position long after arrival = %+v, want %+v", pos.Coordinate, legEnd)
	}
}

func TestWalkerLoopsBackToStart(t *testing.T) {
	start := time.Now()
	legMeters := core.HaversineMeters(legStart, legEnd)
	speed := 1.0
	w := NewWalker(start, speed, true, legStart, legEnd)

	// A lap and a half in, the walker has wrapped and is mid-leg again.
	elapsed := time.Duration(legMeters * 1.5 / speed * float64(time.Second))
	pos := w.PositionAt(start.Add(elapsed))
	wantLat := (legStart.Latitude + legEnd.Latitude) / 2
	if math.Abs(pos.Coordinate.Latitude-wantLat) > 1e-5 {
		t.Fatalf("latitude after 1.5 laps = %v, want ~%v", pos.Coordinate.Latitude, wantLat)
	}
}

func TestWalkerDegenerateInputs(t *testing.T) {
	start := time.Now()

	// No waypoints: zero-value coordinate, no panic.
	w := NewWalker(start, 1, false)
	if pos := w.PositionAt(start.Add(time.Minute)); pos.Coordinate != (model.Coordinate{}) {
		t.Fatalf("empty walker coordinate = %+v, want zero", pos.Coordinate)
	}

	// Single waypoint: pinned there.
	w = NewWalker(start, 1, false, legStart)
	if pos := w.PositionAt(start.Add(time.Minute)); pos.Coordinate != legStart {
		t.Fatalf("single-waypoint coordinate = %+v, want %+v", pos.Coordinate, legStart)
	}

	// Zero speed: never leaves the first waypoint.
	w = NewWalker(start, 0, false, legStart, legEnd)
	if pos := w.PositionAt(start.Add(time.Hour)); pos.Coordinate != legStart {
		t.Fatalf("zero-speed coordinate = %+v, want %+v", pos.Coordinate, legStart)
	}
}
