package stress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Journal persists run reports to a directory, one compressed JSON file per
// run named by its run ID.
type Journal struct {
	dir   string
	codec *Codec
}

// NewJournal opens a journal in dir, creating the directory if needed.
func NewJournal(dir string, algorithm Algorithm) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	codec, err := NewCodec(algorithm)
	if err != nil {
		return nil, err
	}
	return &Journal{dir: dir, codec: codec}, nil
}

// path returns the file a run is stored at.
func (j *Journal) path(runID string) string {
	return filepath.Join(j.dir, runID+j.codec.Algorithm().Ext())
}

// Write stores the report and returns the file path it was written to.
func (j *Journal) Write(report *Report) (string, error) {
	if report.RunID == "" {
		return "", fmt.Errorf("report has no run ID")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	encoded, err := j.codec.Encode(data)
	if err != nil {
		return "", fmt.Errorf("failed to compress report: %w", err)
	}

	path := j.path(report.RunID)
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Read loads the report stored under runID.
func (j *Journal) Read(runID string) (*Report, error) {
	encoded, err := os.ReadFile(j.path(runID))
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	data, err := j.codec.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress report: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// List returns the run IDs present in the journal, sorted.
func (j *Journal) List() ([]string, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	ext := j.codec.Algorithm().Ext()
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ext) {
			ids = append(ids, strings.TrimSuffix(name, ext))
		}
	}

	sort.Strings(ids)
	return ids, nil
}

// Close releases the journal's codec.
func (j *Journal) Close() error {
	return j.codec.Close()
}
