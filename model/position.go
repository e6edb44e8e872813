package model

import "time"

// Coordinate is a point on the WGS84 ellipsoid in decimal degrees.
// Latitude is expected in [-90, 90] and longitude in [-180, 180], but the
// range engine does not validate coordinates centrally; producers own
// validation so upstream bugs surface instead of being silently clamped.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Position is a geographic fix for the user, typically sourced from a
// device GPS stream. AltitudeM and HorizontalAccuracyM are display-only
// metadata; range membership is decided purely on the horizontal
// great-circle distance.
type Position struct {
	Coordinate

	// AltitudeM is metres above the reference surface, when the fix
	// carries a vertical component.
	AltitudeM *float64 `json:"altitude_m,omitempty"`

	// HorizontalAccuracyM is the estimated horizontal error in metres.
	// Never consulted for range decisions.
	HorizontalAccuracyM *float64 `json:"horizontal_accuracy_m,omitempty"`

	// CapturedAt is when the fix was taken. Fixes are applied in arrival
	// order with no staleness check: a GPS reacquisition may legitimately
	// move backward in time.
	CapturedAt time.Time `json:"captured_at"`
}
