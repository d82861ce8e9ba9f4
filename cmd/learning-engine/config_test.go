// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/learning-engine/pkg/types"
)

func writeTopicsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveTopicsRejectsBadTopicsFile(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Fetch.TopicsFile = writeTopicsFile(t, "topics: [\n")

	_, _, err := resolveTopics(cfg)
	if err == nil {
		t.Fatal("resolveTopics() error = nil, want error for malformed YAML")
	}
	var cerr *types.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Errorf("resolveTopics() error = %T, want *types.ConfigurationError", err)
	}
	if !strings.Contains(err.Error(), "topics_file") {
		t.Errorf("error %q does not name the offending key", err)
	}
}

func TestRunCommandFailsOnBadTopicsFile(t *testing.T) {
	path := writeTopicsFile(t, "topics: [\n")
	if err := runCmd.Flags().Set("topics-file", path); err != nil {
		t.Fatal(err)
	}
	defer runCmd.Flags().Set("topics-file", "")

	err := runRun(runCmd, nil)
	if err == nil {
		t.Fatal("runRun() error = nil; an unreadable topics file must fail the command")
	}
	var cerr *types.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Errorf("runRun() error = %T, want *types.ConfigurationError", err)
	}
}

func TestEnvOverridesNestedKeys(t *testing.T) {
	t.Setenv("LEARNING_ENGINE_FETCH_MAX_ITEMS", "9")
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Fetch.MaxItems != 9 {
		t.Errorf("Fetch.MaxItems = %d, want 9 from the environment", cfg.Fetch.MaxItems)
	}
}
