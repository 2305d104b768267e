package stress

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mnohosten/atomic32/pkg/atomic32"
)

// Runner executes a scenario against a single shared cell.
type Runner struct {
	scenario *Scenario
	cell     *atomic32.Int32
	opsDone  *atomic32.Int32
	limiter  *rate.Limiter
}

// NewRunner validates the scenario and prepares a runner for it.
func NewRunner(s *Scenario) (*Runner, error) {
	if s == nil {
		return nil, fmt.Errorf("scenario is nil")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		scenario: s,
		cell:     atomic32.New(s.Initial),
		opsDone:  atomic32.New(0),
	}
	if s.RateLimit > 0 {
		// Allow a burst of one slot per worker so workers are not
		// lock-stepped through the limiter
		r.limiter = rate.NewLimiter(rate.Limit(s.RateLimit), s.Workers)
	}
	return r, nil
}

// Progress returns how many operations have completed and the total planned.
func (r *Runner) Progress() (done, total int64) {
	return int64(r.opsDone.Load()), int64(r.scenario.Workers) * int64(r.scenario.OpsPerWorker)
}

// Report is the outcome of one stress run. CASRetries counts cas attempts
// that lost the race to another writer, a contention estimate.
type Report struct {
	RunID        string        `json:"run_id"`
	Scenario     *Scenario     `json:"scenario"`
	StartedAt    time.Time     `json:"started_at"`
	Elapsed      time.Duration `json:"elapsed"`
	TotalOps     int64         `json:"total_ops"`
	OpCounts     map[Op]int64  `json:"op_counts"`
	CASRetries   int64         `json:"cas_retries"`
	FinalValue   int32         `json:"final_value"`
	Aborted      bool          `json:"aborted"`
	OpsPerSecond float64       `json:"ops_per_second"`
	Checks       []Check       `json:"checks"`
}

// Check is one post-run verification outcome.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Passed reports whether every check succeeded.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// workerResult is the private tally each worker builds without touching
// shared state; results are merged after the workers join.
type workerResult struct {
	counts     map[Op]int64
	casRetries int64
	highSet    bool
	high       int32
	lowSet     bool
	low        int32
	aborted    bool
}

// Run executes the scenario and verifies the outcome. A cancelled context
// stops the workers early and marks the report as aborted; the checks that
// need a complete run are skipped in that case.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	s := r.scenario

	// Deterministic deck order regardless of map iteration
	ops := make([]Op, 0, len(s.Mix))
	for op := range s.Mix {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

	deck := make([]Op, 0)
	for _, op := range ops {
		for i := 0; i < s.Mix[op]; i++ {
			deck = append(deck, op)
		}
	}

	baseSeed := s.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	started := time.Now()
	results := make([]*workerResult, s.Workers)

	var wg sync.WaitGroup
	wg.Add(s.Workers)

	for w := 0; w < s.Workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			results[w] = r.work(ctx, deck, baseSeed+int64(w))
		}()
	}

	wg.Wait()
	elapsed := time.Since(started)

	report := &Report{
		RunID:      uuid.New().String(),
		Scenario:   s,
		StartedAt:  started,
		Elapsed:    elapsed,
		OpCounts:   make(map[Op]int64),
		FinalValue: r.cell.Load(),
	}

	highSet, lowSet := false, false
	var high, low int32
	for _, res := range results {
		for op, n := range res.counts {
			report.OpCounts[op] += n
			report.TotalOps += n
		}
		report.CASRetries += res.casRetries
		if res.highSet && (!highSet || res.high > high) {
			high, highSet = res.high, true
		}
		if res.lowSet && (!lowSet || res.low < low) {
			low, lowSet = res.low, true
		}
		if res.aborted {
			report.Aborted = true
		}
	}

	if seconds := elapsed.Seconds(); seconds > 0 {
		report.OpsPerSecond = float64(report.TotalOps) / seconds
	}

	r.verify(report, high, highSet, low, lowSet)

	if report.Aborted {
		return report, ctx.Err()
	}
	return report, nil
}

// work is the per-worker loop.
func (r *Runner) work(ctx context.Context, deck []Op, seed int64) *workerResult {
	rng := rand.New(rand.NewSource(seed))
	res := &workerResult{counts: make(map[Op]int64)}
	delta := r.scenario.AddDelta

	for i := 0; i < r.scenario.OpsPerWorker; i++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				res.aborted = true
				return res
			}
		} else {
			select {
			case <-ctx.Done():
				res.aborted = true
				return res
			default:
			}
		}

		op := deck[rng.Intn(len(deck))]
		switch op {
		case OpInc:
			r.cell.Inc()
		case OpDec:
			r.cell.Dec()
		case OpAdd:
			r.cell.Add(delta)
		case OpGetAndAdd:
			r.cell.GetAndAdd(delta)
		case OpSwap:
			r.cell.Swap(rng.Int31())
		case OpCAS:
			if !r.cell.CompareAndSwap(r.cell.Load(), rng.Int31()) {
				res.casRetries++
			}
		case OpSetIfGreater:
			v := rng.Int31()
			r.cell.SetIfGreater(v)
			res.noteHigh(v)
		case OpSetIfLess:
			v := rng.Int31()
			r.cell.SetIfLess(v)
			res.noteLow(v)
		case OpTrySetIfGreater:
			v := rng.Int31()
			r.cell.TrySetIfGreater(v)
			res.noteHigh(v)
		case OpTrySetIfLess:
			v := rng.Int31()
			r.cell.TrySetIfLess(v)
			res.noteLow(v)
		case OpUpdate:
			r.cell.Update(func(current int32) int32 { return current + 1 })
		case OpAccumulate:
			r.cell.Accumulate(delta, func(current, x int32) int32 { return current + x })
		}

		res.counts[op]++
		r.opsDone.Inc()
	}
	return res
}

func (res *workerResult) noteHigh(v int32) {
	if !res.highSet || v > res.high {
		res.high, res.highSet = v, true
	}
}

func (res *workerResult) noteLow(v int32) {
	if !res.lowSet || v < res.low {
		res.low, res.lowSet = v, true
	}
}

// verify appends the checks the mix supports to the report. Aborted runs
// skip verification; a partial run has no predictable outcome.
func (r *Runner) verify(report *Report, high int32, highSet bool, low int32, lowSet bool) {
	if report.Aborted {
		return
	}

	s := r.scenario
	planned := int64(s.Workers) * int64(s.OpsPerWorker)
	report.Checks = append(report.Checks, Check{
		Name:   "ops-complete",
		Passed: report.TotalOps == planned,
		Detail: fmt.Sprintf("executed %d of %d operations", report.TotalOps, planned),
	})

	allSumPreserving := true
	onlyHigh, onlyLow := true, true
	hasTry := false
	for op, weight := range s.Mix {
		if weight <= 0 {
			continue
		}
		if !sumPreserving(op) {
			allSumPreserving = false
		}
		if op != OpSetIfGreater && op != OpTrySetIfGreater {
			onlyHigh = false
		}
		if op != OpSetIfLess && op != OpTrySetIfLess {
			onlyLow = false
		}
		if op == OpTrySetIfGreater || op == OpTrySetIfLess {
			hasTry = true
		}
	}

	if allSumPreserving {
		// Two's complement arithmetic wraps the same way the cell does,
		// so the expectation stays exact across overflow
		expected := s.Initial
		for op, n := range report.OpCounts {
			switch op {
			case OpInc, OpUpdate:
				expected += int32(n)
			case OpDec:
				expected -= int32(n)
			case OpAdd, OpGetAndAdd, OpAccumulate:
				expected += int32(n) * s.AddDelta
			}
		}
		report.Checks = append(report.Checks, Check{
			Name:   "no-lost-updates",
			Passed: report.FinalValue == expected,
			Detail: fmt.Sprintf("final value %d, expected %d", report.FinalValue, expected),
		})
	}

	if onlyHigh && highSet {
		expected := s.Initial
		if high > expected {
			expected = high
		}
		if hasTry {
			passed := report.FinalValue >= s.Initial && report.FinalValue <= expected
			report.Checks = append(report.Checks, Check{
				Name:   "watermark-high-bound",
				Passed: passed,
				Detail: fmt.Sprintf("final value %d, bounds [%d, %d]", report.FinalValue, s.Initial, expected),
			})
		} else {
			report.Checks = append(report.Checks, Check{
				Name:   "watermark-high",
				Passed: report.FinalValue == expected,
				Detail: fmt.Sprintf("final value %d, expected peak %d", report.FinalValue, expected),
			})
		}
	}

	if onlyLow && lowSet {
		expected := s.Initial
		if low < expected {
			expected = low
		}
		if hasTry {
			passed := report.FinalValue <= s.Initial && report.FinalValue >= expected
			report.Checks = append(report.Checks, Check{
				Name:   "watermark-low-bound",
				Passed: passed,
				Detail: fmt.Sprintf("final value %d, bounds [%d, %d]", report.FinalValue, expected, s.Initial),
			})
		} else {
			report.Checks = append(report.Checks, Check{
				Name:   "watermark-low",
				Passed: report.FinalValue == expected,
				Detail: fmt.Sprintf("final value %d, expected floor %d", report.FinalValue, expected),
			})
		}
	}
}
