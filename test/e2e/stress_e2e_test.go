package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mnohosten/atomic32/pkg/stress"
)

// TestStressFullWorkflow exercises the whole stress path end to end: load
// scenarios from YAML, run them, verify their checks and journal the
// reports for readback.
func TestStressFullWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	tmpDir := t.TempDir()

	scenarioPath := filepath.Join(tmpDir, "scenarios.yaml")
	scenarioYAML := `scenarios:
  - name: counter-mix
    initial: 100
    workers: 8
    ops_per_worker: 2000
    seed: 7
    mix:
      inc: 3
      dec: 1
      add: 2
    add_delta: 5
  - name: peak-tracking
    workers: 8
    ops_per_worker: 2000
    seed: 11
    mix:
      setIfGreater: 1
`
	if err := os.WriteFile(scenarioPath, []byte(scenarioYAML), 0644); err != nil {
		t.Fatalf("Failed to write scenario file: %v", err)
	}

	scenarios, err := stress.LoadFile(scenarioPath)
	if err != nil {
		t.Fatalf("Failed to load scenarios: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("Expected 2 scenarios, got %d", len(scenarios))
	}

	journal, err := stress.NewJournal(filepath.Join(tmpDir, "journal"), stress.AlgorithmZstd)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer journal.Close()

	reports := make(map[string]*stress.Report)

	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			runner, err := stress.NewRunner(s)
			if err != nil {
				t.Fatalf("Failed to create runner: %v", err)
			}

			report, err := runner.Run(context.Background())
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			planned := int64(s.Workers) * int64(s.OpsPerWorker)
			if report.TotalOps != planned {
				t.Errorf("Expected %d operations, got %d", planned, report.TotalOps)
			}
			if len(report.Checks) == 0 {
				t.Error("Expected verification checks in report")
			}
			for _, check := range report.Checks {
				if !check.Passed {
					t.Errorf("Check %s failed: %s", check.Name, check.Detail)
				}
			}

			if _, err := journal.Write(report); err != nil {
				t.Fatalf("Failed to journal report: %v", err)
			}
			reports[report.RunID] = report

			t.Logf("✓ Scenario %s passed (%d ops, final value %d)", s.Name, report.TotalOps, report.FinalValue)
		})
	}

	// Journal readback returns exactly what was written
	ids, err := journal.List()
	if err != nil {
		t.Fatalf("Failed to list journal: %v", err)
	}
	if len(ids) != len(reports) {
		t.Fatalf("Expected %d journaled runs, got %d", len(reports), len(ids))
	}

	for id, original := range reports {
		loaded, err := journal.Read(id)
		if err != nil {
			t.Fatalf("Failed to read journaled run %s: %v", id, err)
		}
		if loaded.FinalValue != original.FinalValue {
			t.Errorf("Expected final value %d for run %s, got %d", original.FinalValue, id, loaded.FinalValue)
		}
		if loaded.TotalOps != original.TotalOps {
			t.Errorf("Expected %d ops for run %s, got %d", original.TotalOps, id, loaded.TotalOps)
		}
		if loaded.Scenario.Name != original.Scenario.Name {
			t.Errorf("Expected scenario %q for run %s, got %q", original.Scenario.Name, id, loaded.Scenario.Name)
		}
	}

	t.Log("✓ Journal readback passed")
}
