package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fieldsignals/georange/model"
)

// Deployment is a small summary of what was loaded from JSON. It's
// mainly useful for logging from main().
type Deployment struct {
	AgentIDs []string
}

// internal JSON shapes – kept unexported so we're free to evolve them.
type deploymentJSON struct {
	Agents []deployedAgentJSON `json:"agents"`
}

type deployedAgentJSON struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Optional; missing or non-positive values fall back to the default
	// visibility radius at computation time.
	VisibilityRadiusM *float64 `json:"visibility_radius_m"`
}

// LoadDeployment reads a JSON agent deployment from r and returns the
// roster it describes plus a summary. It fails only on JSON / structural
// errors; questionable values (out-of-range coordinates, non-positive
// radii) are passed through and degrade the same way direct
// UpdateAgentRoster calls do.
func LoadDeployment(r io.Reader) ([]model.Agent, *Deployment, error) {
	var payload deploymentJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, nil, fmt.Errorf("LoadDeployment: decode failed: %w", err)
	}

	agents := make([]model.Agent, 0, len(payload.Agents))
	summary := &Deployment{AgentIDs: make([]string, 0, len(payload.Agents))}

	for _, ja := range payload.Agents {
		if ja.ID == "" {
			return nil, nil, fmt.Errorf("LoadDeployment: agent with empty id")
		}

		radius := 0.0
		if ja.VisibilityRadiusM != nil {
			radius = *ja.VisibilityRadiusM
		}

		agents = append(agents, model.Agent{
			ID:   ja.ID,
			Kind: ja.Kind,
			Coordinate: model.Coordinate{
				Latitude:  ja.Latitude,
				Longitude: ja.Longitude,
			},
			VisibilityRadiusMeters: radius,
		})
		summary.AgentIDs = append(summary.AgentIDs, ja.ID)
	}

	return agents, summary, nil
}
