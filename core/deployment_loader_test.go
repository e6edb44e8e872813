package core

import (
	"strings"
	"testing"
)

func TestLoadDeployment(t *testing.T) {
	payload := `{
		"agents": [
			{"id": "g1", "kind": "guide", "latitude": 37.7750, "longitude": -122.4194, "visibility_radius_m": 75},
			{"id": "m1", "kind": "merchant", "latitude": 37.7760, "longitude": -122.4180}
		]
	}`

	agents, summary, err := LoadDeployment(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("LoadDeployment: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("loaded %d agents, want 2", len(agents))
	}

	if agents[0].ID != "g1" || agents[0].VisibilityRadiusMeters != 75 {
		t.Fatalf("agent[0] = %+v, want id g1 with 75m radius", agents[0])
	}

	// Missing radius loads as zero; the default applies at compute time.
	if agents[1].VisibilityRadiusMeters != 0 {
		t.Fatalf("agent[1] radius = %v, want 0 (unset)", agents[1].VisibilityRadiusMeters)
	}
	if agents[1].EffectiveRadiusMeters() != 50 {
		t.Fatalf("agent[1] effective radius = %v, want 50", agents[1].EffectiveRadiusMeters())
	}

	if len(summary.AgentIDs) != 2 || summary.AgentIDs[0] != "g1" || summary.AgentIDs[1] != "m1" {
		t.Fatalf("summary IDs = %v, want [g1 m1]", summary.AgentIDs)
	}
}

func TestLoadDeploymentEmptyID(t *testing.T) {
	payload := `{"agents": [{"id": "", "latitude": 1, "longitude": 2}]}`
	if _, _, err := LoadDeployment(strings.NewReader(payload)); err == nil {
		t.Fatalf("expected error for agent with empty id")
	}
}

func TestLoadDeploymentBadJSON(t *testing.T) {
	if _, _, err := LoadDeployment(strings.NewReader("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadDeploymentEmpty(t *testing.T) {
	agents, summary, err := LoadDeployment(strings.NewReader(`{"agents": []}`))
	if err != nil {
		t.Fatalf("LoadDeployment: %v", err)
	}
	if len(agents) != 0 || len(summary.AgentIDs) != 0 {
		t.Fatalf("expected empty deployment, got %d agents", len(agents))
	}
}
