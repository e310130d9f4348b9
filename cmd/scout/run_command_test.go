package main

import (
	"context"
	"encoding/json"
	"testing"

	"scout/internal/store"
)

func TestRunCommandExecutesPipeline(t *testing.T) {
	server := newModelServer(t, map[string]string{
		"gpt-4o-search-preview": `[{"source_id": "apt-1", "title": "Bright two-bedroom", "url": "https://example.test/apt-1"}]`,
		"gpt-4o-mini":           `{"score": 4, "reason": "close to transit"}`,
	})
	env := setupCLITestEnv(t, "base_url = \""+server.URL+"/v1\"")

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "discovered")

	st := mustOpenEnvStore(t, env)
	listings, err := st.ListListings(context.Background(), store.ListOptions{Filter: store.FilterAll})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("stored %d listings, want 1", len(listings))
	}
	if listings[0].AIRating == nil || *listings[0].AIRating != 4 {
		t.Errorf("ai rating = %v, want 4", listings[0].AIRating)
	}

	runs, err := st.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != store.RunCompleted {
		t.Fatalf("runs = %+v, want one completed run", runs)
	}
}

func TestRunCommandJSONOutput(t *testing.T) {
	server := newModelServer(t, map[string]string{
		"gpt-4o-search-preview": `[]`,
		"gpt-4o-mini":           `{"score": 3, "reason": "ok"}`,
	})
	env := setupCLITestEnv(t, "base_url = \""+server.URL+"/v1\"")

	out, _, err := runCLI(t, []string{"run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run --json: %v", err)
	}
	var payload struct {
		RunID string         `json:"run_id"`
		Stats store.RunStats `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("unmarshal output: %v\n%s", err, out)
	}
	if payload.RunID == "" {
		t.Error("run_id missing from JSON output")
	}
	if payload.Stats.Discovered != 0 {
		t.Errorf("discovered = %d, want 0", payload.Stats.Discovered)
	}
}

func TestRunCommandReportsDiscoveryFailure(t *testing.T) {
	server := newModelServer(t, map[string]string{})
	env := setupCLITestEnv(t, "base_url = \""+server.URL+"/v1\"")

	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil {
		t.Fatal("run succeeded despite discovery failure")
	}

	st := mustOpenEnvStore(t, env)
	runs, listErr := st.ListRuns(context.Background(), 0)
	if listErr != nil {
		t.Fatalf("ListRuns: %v", listErr)
	}
	if len(runs) != 1 || runs[0].Status != store.RunFailed {
		t.Fatalf("runs = %+v, want one failed run", runs)
	}
}
