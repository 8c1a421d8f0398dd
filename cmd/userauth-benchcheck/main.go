// Command userauth-benchcheck compares two `go test -bench` outputs and fails
// when a tracked benchmark metric regressed past the threshold.
//
//	go test -run '^$' -bench . -count 5 . > new.txt
//	userauth-benchcheck -baseline old.txt -candidate new.txt
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const defaultThreshold = 0.30

// defaultTracked covers the request hot paths of the engine.
var defaultTracked = trackList{
	"BenchmarkValidateAccess": {"ns/op", "allocs/op"},
	"BenchmarkRefresh":        {"ns/op", "allocs/op"},
	"BenchmarkLogin":          {"ns/op"},
	"BenchmarkMetricsInc":     {"ns/op"},
}

// trackList maps a benchmark name to the units compared for it.
type trackList map[string][]string

func (t trackList) String() string {
	names := make([]string, 0, len(t))
	for name, units := range t {
		names = append(names, name+":"+strings.Join(units, ","))
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

// Set parses "BenchmarkName:unit1,unit2". Units default to ns/op.
func (t trackList) Set(value string) error {
	name, units, _ := strings.Cut(value, ":")
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "Benchmark") {
		return fmt.Errorf("invalid benchmark name %q", name)
	}
	list := []string{"ns/op"}
	if units != "" {
		list = strings.Split(units, ",")
	}
	t[name] = list
	return nil
}

type sampleSet map[string]map[string][]float64

type comparison struct {
	Benchmark string
	Unit      string
	Baseline  float64
	Candidate float64
	Delta     float64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("userauth-benchcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		baselinePath  string
		candidatePath string
		threshold     float64
	)
	custom := trackList{}
	fs.StringVar(&baselinePath, "baseline", "", "path to baseline benchmark output")
	fs.StringVar(&candidatePath, "candidate", "", "path to candidate benchmark output")
	fs.Float64Var(&threshold, "threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	fs.Var(custom, "track", "benchmark to track as Name:unit,unit (repeatable; replaces defaults)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if baselinePath == "" || candidatePath == "" {
		fmt.Fprintln(stderr, "-baseline and -candidate are required")
		return 2
	}
	if threshold < 0 {
		fmt.Fprintln(stderr, "-threshold must be >= 0")
		return 2
	}

	tracked := defaultTracked
	if len(custom) > 0 {
		tracked = custom
	}

	baseline, err := parseFile(baselinePath, tracked)
	if err != nil {
		fmt.Fprintf(stderr, "parse baseline: %v\n", err)
		return 1
	}
	candidate, err := parseFile(candidatePath, tracked)
	if err != nil {
		fmt.Fprintf(stderr, "parse candidate: %v\n", err)
		return 1
	}

	results, failures := compare(baseline, candidate, tracked, threshold)

	fmt.Fprintln(stdout, "benchmark unit baseline candidate delta")
	for _, r := range results {
		fmt.Fprintf(stdout, "%s %s %.3f %.3f %+0.2f%%\n", r.Benchmark, r.Unit, r.Baseline, r.Candidate, r.Delta*100)
	}

	if len(failures) > 0 {
		fmt.Fprintln(stderr, "performance regression threshold exceeded:")
		for _, f := range failures {
			fmt.Fprintf(stderr, "  - %s\n", f)
		}
		return 1
	}
	return 0
}

// compare returns one row per tracked metric in stable order plus the list
// of failures (missing samples or regressions past threshold).
func compare(baseline, candidate sampleSet, tracked trackList, threshold float64) ([]comparison, []string) {
	names := make([]string, 0, len(tracked))
	for name := range tracked {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		results  []comparison
		failures []string
	)
	for _, name := range names {
		for _, unit := range tracked[name] {
			base := baseline[name][unit]
			cand := candidate[name][unit]
			if len(base) == 0 || len(cand) == 0 {
				failures = append(failures, fmt.Sprintf("missing samples for %s %s", name, unit))
				continue
			}

			baseMedian := median(base)
			candMedian := median(cand)
			if baseMedian <= 0 {
				// Zero-alloc baselines only fail when the candidate starts allocating.
				if candMedian > 0 {
					failures = append(failures, fmt.Sprintf("%s %s went from 0 to %.0f", name, unit, candMedian))
				}
				results = append(results, comparison{Benchmark: name, Unit: unit, Baseline: baseMedian, Candidate: candMedian})
				continue
			}

			delta := (candMedian - baseMedian) / baseMedian
			results = append(results, comparison{
				Benchmark: name, Unit: unit, Baseline: baseMedian, Candidate: candMedian, Delta: delta,
			})
			if delta > threshold {
				failures = append(failures, fmt.Sprintf("%s %s regressed by %+0.2f%% (limit %+0.2f%%)", name, unit, delta*100, threshold*100))
			}
		}
	}
	return results, failures
}

func parseFile(path string, tracked trackList) (sampleSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parse(file, tracked)
}

func parse(r io.Reader, tracked trackList) (sampleSet, error) {
	samples := sampleSet{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || !strings.HasPrefix(fields[0], "Benchmark") {
			continue
		}

		name := trimProcs(fields[0])
		if _, ok := tracked[name]; !ok {
			continue
		}
		if samples[name] == nil {
			samples[name] = map[string][]float64{}
		}

		// fields[1] is the iteration count; the rest are value/unit pairs.
		for i := 2; i+1 < len(fields); i += 2 {
			value, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			samples[name][fields[i+1]] = append(samples[name][fields[i+1]], value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, errors.New("no tracked benchmark lines found")
	}
	return samples, nil
}

// trimProcs drops the -GOMAXPROCS suffix go test appends to benchmark names.
func trimProcs(raw string) string {
	if idx := strings.LastIndexByte(raw, '-'); idx > 0 {
		if _, err := strconv.Atoi(raw[idx+1:]); err == nil {
			return raw[:idx]
		}
	}
	return raw
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
