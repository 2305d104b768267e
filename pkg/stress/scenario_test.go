package stress

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScenario_ValidateDefaults(t *testing.T) {
	s := &Scenario{
		Name: "defaults",
		Mix:  map[Op]int{OpInc: 1},
	}

	if err := s.Validate(); err != nil {
		t.Fatalf("Failed to validate: %v", err)
	}
	if s.Workers != 4 {
		t.Errorf("Expected default workers 4, got %d", s.Workers)
	}
	if s.OpsPerWorker != 1000 {
		t.Errorf("Expected default ops per worker 1000, got %d", s.OpsPerWorker)
	}
	if s.AddDelta != 1 {
		t.Errorf("Expected default add delta 1, got %d", s.AddDelta)
	}
}

func TestScenario_ValidateErrors(t *testing.T) {
	tests := []struct {
		name     string
		scenario *Scenario
	}{
		{"missing name", &Scenario{Mix: map[Op]int{OpInc: 1}}},
		{"empty mix", &Scenario{Name: "x"}},
		{"unknown op", &Scenario{Name: "x", Mix: map[Op]int{"frobnicate": 1}}},
		{"negative weight", &Scenario{Name: "x", Mix: map[Op]int{OpInc: -1}}},
		{"all zero weights", &Scenario{Name: "x", Mix: map[Op]int{OpInc: 0}}},
		{"negative rate", &Scenario{Name: "x", RateLimit: -5, Mix: map[Op]int{OpInc: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.scenario.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestDefaultScenario(t *testing.T) {
	s := DefaultScenario()

	if err := s.Validate(); err != nil {
		t.Fatalf("Failed to validate default scenario: %v", err)
	}
	if s.Mix[OpInc] == 0 {
		t.Error("Expected default scenario to include inc")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.yaml")

	content := `scenarios:
  - name: counter-storm
    initial: 0
    workers: 8
    ops_per_worker: 5000
    mix:
      inc: 3
      dec: 1
  - name: watermark
    initial: -100
    workers: 4
    ops_per_worker: 2000
    seed: 7
    mix:
      setIfGreater: 1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scenario file: %v", err)
	}

	scenarios, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load scenarios: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("Expected 2 scenarios, got %d", len(scenarios))
	}

	storm := scenarios[0]
	if storm.Name != "counter-storm" {
		t.Errorf("Expected name counter-storm, got %s", storm.Name)
	}
	if storm.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", storm.Workers)
	}
	if storm.Mix[OpInc] != 3 || storm.Mix[OpDec] != 1 {
		t.Errorf("Expected mix inc:3 dec:1, got %v", storm.Mix)
	}

	watermark := scenarios[1]
	if watermark.Initial != -100 {
		t.Errorf("Expected initial -100, got %d", watermark.Initial)
	}
	if watermark.Seed != 7 {
		t.Errorf("Expected seed 7, got %d", watermark.Seed)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		return path
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	if _, err := LoadFile(write("empty.yaml", "scenarios: []\n")); err == nil {
		t.Error("Expected error for empty scenario list")
	}

	if _, err := LoadFile(write("bad.yaml", "scenarios: [\n")); err == nil {
		t.Error("Expected error for malformed YAML")
	}

	dup := `scenarios:
  - name: same
    mix: {inc: 1}
  - name: same
    mix: {dec: 1}
`
	if _, err := LoadFile(write("dup.yaml", dup)); err == nil {
		t.Error("Expected error for duplicate scenario names")
	}

	unknown := `scenarios:
  - name: x
    mix: {teleport: 1}
`
	if _, err := LoadFile(write("unknown.yaml", unknown)); err == nil {
		t.Error("Expected error for unknown operation")
	}
}
