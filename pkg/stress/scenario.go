// Package stress drives concurrent operation mixes against an atomic cell
// and verifies the outcomes that the cell guarantees, such as no lost
// updates for pure counter workloads and exact watermarks for bounded sets.
package stress

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Op names a cell operation a scenario can include in its mix.
type Op string

const (
	OpInc             Op = "inc"
	OpDec             Op = "dec"
	OpAdd             Op = "add"
	OpGetAndAdd       Op = "getAndAdd"
	OpSwap            Op = "swap"
	OpCAS             Op = "cas"
	OpSetIfGreater    Op = "setIfGreater"
	OpSetIfLess       Op = "setIfLess"
	OpTrySetIfGreater Op = "trySetIfGreater"
	OpTrySetIfLess    Op = "trySetIfLess"
	OpUpdate          Op = "update"
	OpAccumulate      Op = "accumulate"
)

// knownOps lists every operation the runner can execute.
var knownOps = map[Op]bool{
	OpInc:             true,
	OpDec:             true,
	OpAdd:             true,
	OpGetAndAdd:       true,
	OpSwap:            true,
	OpCAS:             true,
	OpSetIfGreater:    true,
	OpSetIfLess:       true,
	OpTrySetIfGreater: true,
	OpTrySetIfLess:    true,
	OpUpdate:          true,
	OpAccumulate:      true,
}

// sumPreserving reports whether an operation shifts the cell by a fixed,
// known delta. A mix made only of such operations has a predictable final
// value, which the runner verifies after the run.
func sumPreserving(op Op) bool {
	switch op {
	case OpInc, OpDec, OpAdd, OpGetAndAdd, OpUpdate, OpAccumulate:
		return true
	default:
		return false
	}
}

// Scenario describes one stress run: how many workers, how many operations
// each performs, and the weighted operation mix they draw from.
type Scenario struct {
	// Name identifies the scenario in reports and journal entries
	Name string `yaml:"name" json:"name"`

	// Initial is the value the cell starts at
	Initial int32 `yaml:"initial" json:"initial"`

	// Workers is the number of concurrent goroutines
	Workers int `yaml:"workers" json:"workers"`

	// OpsPerWorker is how many operations each worker performs
	OpsPerWorker int `yaml:"ops_per_worker" json:"ops_per_worker"`

	// Mix maps operation names to relative weights
	Mix map[Op]int `yaml:"mix" json:"mix"`

	// AddDelta is the operand used by add, getAndAdd and accumulate
	AddDelta int32 `yaml:"add_delta" json:"add_delta"`

	// RateLimit caps the aggregate operation rate in ops/second;
	// zero means unlimited
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`

	// Seed makes worker value streams reproducible; zero picks a
	// time-based seed
	Seed int64 `yaml:"seed" json:"seed"`
}

// DefaultScenario returns a pure counter workload that must finish at
// exactly Workers*OpsPerWorker.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name:         "counter",
		Initial:      0,
		Workers:      8,
		OpsPerWorker: 10000,
		Mix:          map[Op]int{OpInc: 1},
		AddDelta:     1,
	}
}

// Validate checks the scenario and fills in defaults for zero fields.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if s.Workers <= 0 {
		s.Workers = 4
	}
	if s.OpsPerWorker <= 0 {
		s.OpsPerWorker = 1000
	}
	if s.AddDelta == 0 {
		s.AddDelta = 1
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("scenario %q: rate_limit must not be negative", s.Name)
	}
	if len(s.Mix) == 0 {
		return fmt.Errorf("scenario %q: mix is empty", s.Name)
	}

	total := 0
	for op, weight := range s.Mix {
		if !knownOps[op] {
			return fmt.Errorf("scenario %q: unknown operation %q", s.Name, op)
		}
		if weight < 0 {
			return fmt.Errorf("scenario %q: operation %q has negative weight", s.Name, op)
		}
		total += weight
	}
	if total == 0 {
		return fmt.Errorf("scenario %q: all mix weights are zero", s.Name)
	}
	return nil
}

// File is the on-disk scenario collection format.
type File struct {
	Scenarios []*Scenario `yaml:"scenarios"`
}

// LoadFile reads and validates a YAML scenario file.
func LoadFile(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("scenario file %s contains no scenarios", path)
	}

	seen := make(map[string]bool)
	for _, s := range f.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("scenario file %s: duplicate scenario name %q", path, s.Name)
		}
		seen[s.Name] = true
	}
	return f.Scenarios, nil
}
