package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baselineOutput = `goos: linux
goarch: amd64
pkg: github.com/MrEthical07/userauth
BenchmarkValidateAccess-8   	  500000	      2000 ns/op	     900 B/op	      12 allocs/op
BenchmarkValidateAccess-8   	  500000	      2200 ns/op	     900 B/op	      12 allocs/op
BenchmarkValidateAccess-8   	  500000	      2100 ns/op	     900 B/op	      12 allocs/op
BenchmarkMetricsInc-8       	100000000	        10.0 ns/op	       0 B/op	       0 allocs/op
PASS
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func tracked() trackList {
	return trackList{
		"BenchmarkValidateAccess": {"ns/op", "allocs/op"},
		"BenchmarkMetricsInc":     {"ns/op", "allocs/op"},
	}
}

func TestParse(t *testing.T) {
	samples, err := parse(strings.NewReader(baselineOutput), tracked())
	require.NoError(t, err)

	assert.Equal(t, []float64{2000, 2200, 2100}, samples["BenchmarkValidateAccess"]["ns/op"])
	assert.Equal(t, []float64{12, 12, 12}, samples["BenchmarkValidateAccess"]["allocs/op"])
	assert.Equal(t, []float64{0}, samples["BenchmarkMetricsInc"]["allocs/op"])
}

func TestParseNoTrackedLines(t *testing.T) {
	_, err := parse(strings.NewReader("PASS\n"), tracked())
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	base, err := parse(strings.NewReader(baselineOutput), tracked())
	require.NoError(t, err)

	slower := strings.ReplaceAll(baselineOutput, "2100 ns/op", "9000 ns/op")
	slower = strings.ReplaceAll(slower, "2200 ns/op", "9000 ns/op")
	cand, err := parse(strings.NewReader(slower), tracked())
	require.NoError(t, err)

	results, failures := compare(base, base, tracked(), 0.3)
	assert.Empty(t, failures)
	assert.Len(t, results, 4)

	_, failures = compare(base, cand, tracked(), 0.3)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "BenchmarkValidateAccess ns/op regressed")
}

func TestCompareZeroAllocBaseline(t *testing.T) {
	base := sampleSet{"BenchmarkMetricsInc": {"ns/op": {10}, "allocs/op": {0}}}
	cand := sampleSet{"BenchmarkMetricsInc": {"ns/op": {10}, "allocs/op": {1}}}

	_, failures := compare(base, cand, trackList{"BenchmarkMetricsInc": {"allocs/op"}}, 0.3)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "went from 0")
}

func TestCompareMissingSamples(t *testing.T) {
	base := sampleSet{"BenchmarkMetricsInc": {"ns/op": {10}}}
	_, failures := compare(base, sampleSet{}, trackList{"BenchmarkMetricsInc": {"ns/op"}}, 0.3)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "missing samples")
}

func TestTrackListSet(t *testing.T) {
	tl := trackList{}
	require.NoError(t, tl.Set("BenchmarkLogin"))
	require.NoError(t, tl.Set("BenchmarkRefresh:ns/op,B/op"))
	assert.Equal(t, []string{"ns/op"}, tl["BenchmarkLogin"])
	assert.Equal(t, []string{"ns/op", "B/op"}, tl["BenchmarkRefresh"])
	assert.Error(t, tl.Set("Login"))
}

func TestRun(t *testing.T) {
	base := writeFile(t, "base.txt", baselineOutput)
	same := writeFile(t, "same.txt", baselineOutput)
	worse := writeFile(t, "worse.txt", strings.ReplaceAll(baselineOutput, "10.0 ns/op", "50.0 ns/op"))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-baseline", base, "-candidate", same, "-track", "BenchmarkMetricsInc"}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "BenchmarkMetricsInc ns/op")

	stdout.Reset()
	stderr.Reset()
	code = run([]string{"-baseline", base, "-candidate", worse, "-track", "BenchmarkMetricsInc"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "regressed")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"-baseline", base}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"-baseline", base, "-candidate", same, "-threshold", "-1"}, &stdout, &stderr))
}
