package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const streamInput = `{"Time":"2025-11-01T15:43:02.993511-05:00","Action":"start","Package":"github.com/example/test"}
{"Time":"2025-11-01T15:43:02.993565-05:00","Action":"run","Package":"github.com/example/test","Test":"TestExample"}
{"Time":"2025-11-01T15:43:02.993579-05:00","Action":"pass","Package":"github.com/example/test","Test":"TestExample","Elapsed":0.001}
{"Time":"2025-11-01T15:43:02.993590-05:00","Action":"pass","Package":"github.com/example/test","Elapsed":0.002}`

func buildTally(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "tally")
	build := exec.Command("go", "build", "-o", bin, ".")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	require.NoError(t, build.Run(), "Failed to build tally binary")
	return bin
}

func runTally(t *testing.T, bin, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = t.TempDir()
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	return string(out), err
}

func TestRenderStatisticsDocument(t *testing.T) {
	bin := buildTally(t)

	out, err := runTally(t, bin, `{"success":5,"failed":0,"skipped":1,"total":6,"time":12345}`, "render")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Total Results : 6")
	assert.Contains(t, out, "Time : 12.345 s")
}

func TestRenderExitsNonZeroOnFailures(t *testing.T) {
	bin := buildTally(t)

	out, err := runTally(t, bin, `{"success":5,"failed":2,"skipped":1,"total":8,"time":12345}`, "render", "--format", "json")
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, out, `"totalText": "Total Results : 8"`)
}

func TestOutfileFlag(t *testing.T) {
	bin := buildTally(t)
	outfile := filepath.Join(t.TempDir(), "test_output.json")

	out, err := runTally(t, bin, streamInput, "render", "--outfile", outfile)
	require.NoError(t, err, "Failed to run tally with --outfile")
	assert.Contains(t, out, "Total Results : 1")

	require.FileExists(t, outfile, "Output file should be created")
	content, err := os.ReadFile(outfile)
	require.NoError(t, err, "Failed to read output file")
	require.Equal(t, streamInput, strings.TrimRight(string(content), "\n"), "Output file should contain all input lines")
}

func TestOutfileWithInvalidPath(t *testing.T) {
	bin := buildTally(t)

	_, err := runTally(t, bin, streamInput, "render", "--outfile", "/nonexistent/directory/output.json")
	require.Error(t, err, "Should fail when output file path is invalid")
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	bin := buildTally(t)

	_, err := runTally(t, bin, streamInput, "render", "--format", "pdf")
	require.Error(t, err)
}

func TestWatchReplayWithoutTTY(t *testing.T) {
	bin := buildTally(t)
	recorded, err := filepath.Abs(filepath.Join("testdata", "run.jsonl"))
	require.NoError(t, err)

	out, err := runTally(t, bin, "", "watch", "--notty", "--replay", "--rate", "0", "-f", recorded)
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
	assert.Equal(t, 1, exitErr.ExitCode())

	assert.Contains(t, out, "Total Results : 5")
	assert.Contains(t, out, "Time : 0.5 s")
}

func TestWatchReplayRequiresFile(t *testing.T) {
	bin := buildTally(t)

	_, err := runTally(t, bin, streamInput, "watch", "--notty", "--replay")
	require.Error(t, err)
}
