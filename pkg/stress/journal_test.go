package stress

import (
	"context"
	"testing"
)

func runForJournal(t *testing.T, name string) *Report {
	t.Helper()

	report := mustRun(t, &Scenario{
		Name:         name,
		Workers:      2,
		OpsPerWorker: 100,
		Mix:          map[Op]int{OpInc: 1},
		Seed:         1,
	})
	return report
}

func TestJournal_WriteRead(t *testing.T) {
	journal, err := NewJournal(t.TempDir(), AlgorithmZstd)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer journal.Close()

	report := runForJournal(t, "journaled")

	path, err := journal.Write(report)
	if err != nil {
		t.Fatalf("Failed to write report: %v", err)
	}
	if path == "" {
		t.Error("Expected a file path")
	}

	loaded, err := journal.Read(report.RunID)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}

	if loaded.RunID != report.RunID {
		t.Errorf("Expected run ID %s, got %s", report.RunID, loaded.RunID)
	}
	if loaded.FinalValue != report.FinalValue {
		t.Errorf("Expected final value %d, got %d", report.FinalValue, loaded.FinalValue)
	}
	if loaded.TotalOps != report.TotalOps {
		t.Errorf("Expected %d ops, got %d", report.TotalOps, loaded.TotalOps)
	}
	if loaded.Scenario == nil || loaded.Scenario.Name != "journaled" {
		t.Errorf("Expected scenario to round trip, got %+v", loaded.Scenario)
	}
	if loaded.OpCounts[OpInc] != report.OpCounts[OpInc] {
		t.Errorf("Expected inc count %d, got %d", report.OpCounts[OpInc], loaded.OpCounts[OpInc])
	}
	if len(loaded.Checks) != len(report.Checks) {
		t.Errorf("Expected %d checks, got %d", len(report.Checks), len(loaded.Checks))
	}
}

func TestJournal_List(t *testing.T) {
	journal, err := NewJournal(t.TempDir(), AlgorithmSnappy)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer journal.Close()

	ids, err := journal.List()
	if err != nil {
		t.Fatalf("Failed to list empty journal: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected empty journal, got %v", ids)
	}

	want := make(map[string]bool)
	for i := 0; i < 3; i++ {
		report := runForJournal(t, "listed")
		if _, err := journal.Write(report); err != nil {
			t.Fatalf("Failed to write report: %v", err)
		}
		want[report.RunID] = true
	}

	ids, err = journal.List()
	if err != nil {
		t.Fatalf("Failed to list journal: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(ids))
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("Unexpected run ID %s", id)
		}
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] > ids[i] {
			t.Error("Expected run IDs to be sorted")
		}
	}
}

func TestJournal_ReadMissing(t *testing.T) {
	journal, err := NewJournal(t.TempDir(), AlgorithmNone)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer journal.Close()

	if _, err := journal.Read("no-such-run"); err == nil {
		t.Error("Expected error for missing run")
	}
}

func TestJournal_WriteWithoutRunID(t *testing.T) {
	journal, err := NewJournal(t.TempDir(), AlgorithmNone)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer journal.Close()

	if _, err := journal.Write(&Report{}); err == nil {
		t.Error("Expected error for report without run ID")
	}
}

func TestJournal_EndToEnd(t *testing.T) {
	// Run, persist, reload, and re-verify the persisted checks
	journal, err := NewJournal(t.TempDir(), AlgorithmGzip)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer journal.Close()

	runner, err := NewRunner(&Scenario{
		Name:         "persisted",
		Workers:      4,
		OpsPerWorker: 500,
		Mix:          map[Op]int{OpInc: 2, OpDec: 1},
		Seed:         3,
	})
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Failed to run scenario: %v", err)
	}
	if _, err := journal.Write(report); err != nil {
		t.Fatalf("Failed to write report: %v", err)
	}

	loaded, err := journal.Read(report.RunID)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if !loaded.Passed() {
		t.Errorf("Expected persisted checks to pass, got %v", loaded.Checks)
	}
}
