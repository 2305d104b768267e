// Counter stress testing tool
//
// This tool drives concurrent operation mixes against a single atomic cell,
// verifies the guarantees the mix supports (lost-update freedom, watermark
// exactness) and optionally journals the run reports for later inspection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mnohosten/atomic32/pkg/stress"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return nil
	}

	command := os.Args[1]

	switch command {
	case "run":
		return runStress(os.Args[2:])
	case "show":
		return runShow(os.Args[2:])
	case "list":
		return runList(os.Args[2:])
	case "version":
		fmt.Printf("atomic32 stress tool v%s\n", version)
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runStress(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	scenarioFile := fs.String("scenario", "", "YAML scenario file (omit to run the built-in counter scenario)")
	name := fs.String("name", "", "Run only the named scenario from the file")
	workers := fs.Int("workers", 0, "Override worker count (zero keeps the scenario's value)")
	ops := fs.Int("ops", 0, "Override operations per worker (zero keeps the scenario's value)")
	seed := fs.Int64("seed", 0, "Override random seed (zero keeps the scenario's value)")
	rateLimit := fs.Float64("rate", -1, "Override aggregate ops/second limit (negative keeps the scenario's value)")
	journalDir := fs.String("journal", "", "Directory to journal run reports into (optional)")
	codecName := fs.String("codec", "zstd", "Journal compression: none, snappy, zstd, gzip")

	fs.Parse(args)

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load scenarios
	var scenarios []*stress.Scenario
	if *scenarioFile == "" {
		scenarios = []*stress.Scenario{stress.DefaultScenario()}
	} else {
		var err error
		scenarios, err = stress.LoadFile(*scenarioFile)
		if err != nil {
			return err
		}
	}

	if *name != "" {
		var picked *stress.Scenario
		for _, s := range scenarios {
			if s.Name == *name {
				picked = s
				break
			}
		}
		if picked == nil {
			return fmt.Errorf("scenario %q not found in %s", *name, *scenarioFile)
		}
		scenarios = []*stress.Scenario{picked}
	}

	// Apply command-line overrides
	for _, s := range scenarios {
		if *workers > 0 {
			s.Workers = *workers
		}
		if *ops > 0 {
			s.OpsPerWorker = *ops
		}
		if *seed != 0 {
			s.Seed = *seed
		}
		if *rateLimit >= 0 {
			s.RateLimit = *rateLimit
		}
	}

	// Open the journal before running so a bad directory fails fast
	var journal *stress.Journal
	if *journalDir != "" {
		algorithm, err := stress.ParseAlgorithm(*codecName)
		if err != nil {
			return err
		}
		journal, err = stress.NewJournal(*journalDir, algorithm)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	// Stop workers on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		logrus.Warn("interrupt received, stopping workers")
		cancel()
	}()

	failed := 0
	for _, s := range scenarios {
		report, err := execute(ctx, s)
		if report != nil {
			printReport(report)
			if journal != nil {
				path, werr := journal.Write(report)
				if werr != nil {
					return werr
				}
				fmt.Printf("Journaled to %s\n\n", path)
			}
		}
		if err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		if !report.Passed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d scenario(s) failed verification", failed)
	}
	return nil
}

// execute runs one scenario with periodic progress logging.
func execute(ctx context.Context, s *stress.Scenario) (*stress.Report, error) {
	runner, err := stress.NewRunner(s)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"scenario": s.Name,
		"workers":  s.Workers,
		"ops":      s.OpsPerWorker,
	}).Info("starting run")

	progressDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-progressDone:
				return
			case <-ticker.C:
				done, total := runner.Progress()
				logrus.Infof("progress: %d/%d operations (%.1f%%)", done, total, float64(done)/float64(total)*100)
			}
		}
	}()

	report, err := runner.Run(ctx)
	close(progressDone)
	return report, err
}

// printReport writes a text report to stdout.
func printReport(r *stress.Report) {
	fmt.Printf("\nScenario: %s\n", r.Scenario.Name)
	fmt.Printf("  Run ID:      %s\n", r.RunID)
	fmt.Printf("  Elapsed:     %v\n", r.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Operations:  %d\n", r.TotalOps)
	fmt.Printf("  Throughput:  %.0f ops/s\n", r.OpsPerSecond)
	fmt.Printf("  Final value: %d\n", r.FinalValue)
	if r.CASRetries > 0 {
		fmt.Printf("  CAS retries: %d\n", r.CASRetries)
	}
	if r.Aborted {
		fmt.Println("  Aborted:     yes")
	}

	ops := make([]stress.Op, 0, len(r.OpCounts))
	for op := range r.OpCounts {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	fmt.Println("  Mix executed:")
	for _, op := range ops {
		fmt.Printf("    %-16s %d\n", op, r.OpCounts[op])
	}

	if len(r.Checks) > 0 {
		fmt.Println("  Checks:")
		for _, c := range r.Checks {
			mark := "✓"
			if !c.Passed {
				mark = "✗"
			}
			fmt.Printf("    %s %-20s %s\n", mark, c.Name, c.Detail)
		}
	}
	fmt.Println()
}

func runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	journalDir := fs.String("journal", "stress-journal", "Journal directory")
	codecName := fs.String("codec", "zstd", "Journal compression: none, snappy, zstd, gzip")

	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("show requires exactly one run ID argument")
	}

	algorithm, err := stress.ParseAlgorithm(*codecName)
	if err != nil {
		return err
	}
	journal, err := stress.NewJournal(*journalDir, algorithm)
	if err != nil {
		return err
	}
	defer journal.Close()

	report, err := journal.Read(fs.Arg(0))
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	journalDir := fs.String("journal", "stress-journal", "Journal directory")
	codecName := fs.String("codec", "zstd", "Journal compression: none, snappy, zstd, gzip")

	fs.Parse(args)

	algorithm, err := stress.ParseAlgorithm(*codecName)
	if err != nil {
		return err
	}
	journal, err := stress.NewJournal(*journalDir, algorithm)
	if err != nil {
		return err
	}
	defer journal.Close()

	ids, err := journal.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No journaled runs found")
		return nil
	}

	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func printUsage() {
	fmt.Print(`Counter stress testing tool

USAGE:
    stress <command> [options]

COMMANDS:
    run         Run stress scenarios against an atomic cell
    show        Print a journaled run report
    list        List journaled run IDs
    version     Show version information
    help        Show this help message

RUN - Execute scenarios:
    stress run [options]

    Options:
      --scenario <path>   YAML scenario file (omit for the built-in counter scenario)
      --name <name>       Run only the named scenario from the file
      --workers <n>       Override worker count
      --ops <n>           Override operations per worker
      --seed <n>          Override random seed for reproducible value streams
      --rate <n>          Override aggregate ops/second limit
      --journal <dir>     Journal run reports into this directory
      --codec <name>      Journal compression: none, snappy, zstd, gzip (default: zstd)

    Examples:
      stress run
      stress run --scenario scenarios.yaml --journal ./runs
      stress run --workers 32 --ops 100000 --seed 42

SHOW - Print a journaled report:
    stress show --journal <dir> <run-id>

LIST - List journaled runs:
    stress list --journal <dir>

SCENARIO FILE FORMAT (YAML):
    scenarios:
      - name: counter
        initial: 0
        workers: 8
        ops_per_worker: 10000
        mix:
          inc: 3
          dec: 1
          add: 1
        add_delta: 5
      - name: high-watermark
        workers: 16
        ops_per_worker: 5000
        mix:
          setIfGreater: 1

    Operations: inc, dec, add, getAndAdd, swap, cas, setIfGreater,
    setIfLess, trySetIfGreater, trySetIfLess, update, accumulate

The run command exits non-zero when any scenario fails verification.

For more information, visit: https://github.com/mnohosten/atomic32

`)
}
