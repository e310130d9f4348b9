package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scout/internal/store"
)

func TestProfileSetAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"profile", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("profile show: %v", err)
	}
	requireContains(t, out, "No preference profile set")

	out, _, err = runCLI(t, []string{"profile", "set", "quiet streets, short commute"}, env.configPath)
	if err != nil {
		t.Fatalf("profile set: %v", err)
	}
	requireContains(t, out, "Preference profile updated")

	out, _, err = runCLI(t, []string{"profile", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("profile show: %v", err)
	}
	requireContains(t, out, "quiet streets, short commute")

	st := mustOpenEnvStore(t, env)
	doc, err := st.GetDocument(context.Background(), store.DocPreferenceProfile)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc == nil || doc.Content != "quiet streets, short commute" {
		t.Fatalf("profile doc = %+v", doc)
	}
}

func TestProfileSetFromFile(t *testing.T) {
	env := setupCLITestEnv(t)

	path := filepath.Join(t.TempDir(), "profile.txt")
	if err := os.WriteFile(path, []byte("top floor, balcony\n"), 0o644); err != nil {
		t.Fatalf("write profile file: %v", err)
	}

	_, _, err := runCLI(t, []string{"profile", "set", "--file", path}, env.configPath)
	if err != nil {
		t.Fatalf("profile set --file: %v", err)
	}

	st := mustOpenEnvStore(t, env)
	doc, err := st.GetDocument(context.Background(), store.DocPreferenceProfile)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc == nil || doc.Content != "top floor, balcony" {
		t.Fatalf("profile doc = %+v", doc)
	}
}

func TestProfileSetRejectsEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"profile", "set", "   "}, env.configPath)
	if err == nil {
		t.Fatal("profile set accepted an empty profile")
	}
}
