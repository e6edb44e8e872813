package feed

import (
	"math"
	"time"

	"github.com/fieldsignals/georange/core"
	"github.com/fieldsignals/georange/model"
)

// PositionSource produces the simulated user's position at a given
// instant.
type PositionSource interface {
	PositionAt(t time.Time) model.Position
}

// Static pins the user to a fixed coordinate.
type Static struct {
	At model.Coordinate
}

// PositionAt for a static source always reports the pinned coordinate.
func (s Static) PositionAt(t time.Time) model.Position {
	return model.Position{Coordinate: s.At, CapturedAt: t}
}

// Walker moves the user along a waypoint path at a constant ground
// speed, interpolating linearly between consecutive waypoints. Intended
// for city-scale paths where linear interpolation of degrees is an
// acceptable approximation.
type Walker struct {
	waypoints []model.Coordinate
	segments  []float64 // great-circle leg lengths, metres
	total     float64
	speedMps  float64
	start     time.Time
	loop      bool
}

// NewWalker constructs a walker that departs the first waypoint at
// start. With loop set, the walker wraps back to the first waypoint
// after the last; otherwise it stops there.
func NewWalker(start time.Time, speedMps float64, loop bool, waypoints ...model.Coordinate) *Walker {
	w := &Walker{
		waypoints: append([]model.Coordinate(nil), waypoints...),
		speedMps:  speedMps,
		start:     start,
		loop:      loop,
	}
	for i := 0; i+1 < len(w.waypoints); i++ {
		d := core.HaversineMeters(w.waypoints[i], w.waypoints[i+1])
		w.segments = append(w.segments, d)
		w.total += d
	}
	return w
}

// PositionAt returns the interpolated position for the given instant.
func (w *Walker) PositionAt(t time.Time) model.Position {
	pos := model.Position{CapturedAt: t}
	if len(w.waypoints) == 0 {
		return pos
	}

	pos.Coordinate = w.waypoints[0]
	if w.total == 0 || w.speedMps <= 0 {
		return pos
	}

	traveled := t.Sub(w.start).Seconds() * w.speedMps
	if traveled <= 0 {
		return pos
	}
	if w.loop {
		traveled = math.Mod(traveled, w.total)
	} else if traveled >= w.total {
		pos.Coordinate = w.waypoints[len(w.waypoints)-1]
		return pos
	}

	for i, seg := range w.segments {
		if traveled > seg {
			traveled -= seg
			continue
		}
		frac := 0.0
		if seg > 0 {
			frac = traveled / seg
		}
		a, b := w.waypoints[i], w.waypoints[i+1]
		pos.Coordinate = model.Coordinate{
			Latitude:  a.Latitude + (b.Latitude-a.Latitude)*frac,
			Longitude: a.Longitude + (b.Longitude-a.Longitude)*frac,
		}
		return pos
	}

	pos.Coordinate = w.waypoints[len(w.waypoints)-1]
	return pos
}
