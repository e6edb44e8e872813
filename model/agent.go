package model

// DefaultVisibilityRadiusMeters is applied when an agent's stated
// visibility radius is unset or non-positive.
const DefaultVisibilityRadiusMeters = 50.0

// Agent is a deployed virtual object with a location and an interaction
// radius. Kind is a free-form display category (e.g. "guide", "merchant");
// the range engine attaches no meaning to it.
type Agent struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Coordinate Coordinate `json:"coordinate"`

	// VisibilityRadiusMeters gates in-range membership. Values ≤ 0 fall
	// back to DefaultVisibilityRadiusMeters at computation time, so
	// changing it is equivalent to redeploying the agent.
	VisibilityRadiusMeters float64 `json:"visibility_radius_m"`
}

// EffectiveRadiusMeters returns the radius that actually gates range
// membership for this agent.
func (a Agent) EffectiveRadiusMeters() float64 {
	if a.VisibilityRadiusMeters > 0 {
		return a.VisibilityRadiusMeters
	}
	return DefaultVisibilityRadiusMeters
}
