package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hsiuhsiu/hegossip-go/internal/experiment"
)

func TestVersion(t *testing.T) {
	var out, errOut bytes.Buffer
	require.Equal(t, 0, dispatch(context.Background(), []string{"version"}, &out, &errOut))
	require.True(t, strings.HasPrefix(out.String(), "hegossip-sim "))
}

func TestUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	require.Equal(t, 2, dispatch(context.Background(), []string{"frobnicate"}, &out, &errOut))
	require.Contains(t, errOut.String(), "unknown command")

	require.Equal(t, 2, dispatch(context.Background(), nil, &out, &errOut))
}

func TestRunStoresReportAndHistoryListsIt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	logFile := filepath.Join(t.TempDir(), "sim.log")
	args := []string{
		"--grid-width=3", "--grid-height=3",
		"--runs=2", "--steps=3", "--workers=1", "--seed=5",
		"--store=" + dir, "--log-file=" + logFile,
	}

	var out, errOut bytes.Buffer
	code := dispatch(context.Background(), append([]string{"run"}, args...), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	report, err := experiment.DecodeReport(out.Bytes())
	require.NoError(t, err)
	require.NotEmpty(t, report.ID)
	require.Equal(t, 6, report.Estimates)
	require.NotNil(t, report.RMSE.Encrypted)

	out.Reset()
	code = dispatch(context.Background(), []string{"history", "--store=" + dir}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), report.ID)
	require.Contains(t, out.String(), "3x3")

	out.Reset()
	code = dispatch(context.Background(), []string{"history", "--store", dir, "--id", report.ID}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	shown, err := experiment.DecodeReport(out.Bytes())
	require.NoError(t, err)
	require.Equal(t, report.ID, shown.ID)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	var out, errOut bytes.Buffer
	code := dispatch(context.Background(), []string{"run", "--grid-width=0", "--store="}, &out, &errOut)
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "configuration")
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errOut bytes.Buffer
	code := dispatch(ctx, []string{"run", "--runs=4", "--steps=2", "--workers=1", "--store=", "--log-file=" + filepath.Join(t.TempDir(), "log")}, &out, &errOut)
	require.Equal(t, 130, code)
}

func TestHistoryUnknownID(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	var out, errOut bytes.Buffer
	code := dispatch(context.Background(), []string{"history", "--store", dir, "--id", "abc"}, &out, &errOut)
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "report not found")
	require.NotContains(t, errOut.String(), "unknown flag")
}
