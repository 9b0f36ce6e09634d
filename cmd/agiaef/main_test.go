package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/certify"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/report"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{appName}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_MissingSystem(t *testing.T) {
	code, _, stderr := run(t)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, `"system" not set`)
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _, _ := run(t, "--system", "Atlas", "--no-such-flag")
	assert.Equal(t, exitFailure, code)
}

func TestRun_WritesReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "atlas.json")
	code, stdout, _ := run(t, "--system", "Atlas", "--seed", "42", "--output", out)
	require.Contains(t, []int{exitOK, exitGate}, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, report.Validate(data))

	result, err := report.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Atlas", result.SystemName)
	assert.Len(t, result.DimensionScores, rubric.Default().Len())

	assert.Contains(t, stdout, "AGI-AEF Assessment Summary")
	assert.Contains(t, stdout, "Detailed results saved to: "+out)
	assert.Contains(t, stdout, "Domain Profile: general")
}

func TestRun_Breakdown(t *testing.T) {
	out := filepath.Join(t.TempDir(), "atlas.json")
	code, stdout, _ := run(t, "--system", "Atlas", "--seed", "42", "--output", out, "--breakdown")
	require.Contains(t, []int{exitOK, exitGate}, code)
	assert.Contains(t, stdout, "Score Breakdown:")
	assert.Contains(t, stdout, "Total weighted: ")

	code, stdout, _ = run(t, "--system", "Atlas", "--seed", "42", "--output", out)
	require.Contains(t, []int{exitOK, exitGate}, code)
	assert.NotContains(t, stdout, "Score Breakdown:")
}

func TestRun_JSONIsReproducibleWithSeed(t *testing.T) {
	dir := t.TempDir()
	decode := func(name string) *assessment.Result {
		code, stdout, _ := run(t, "--system", "Atlas", "--seed", "7", "--json",
			"--output", filepath.Join(dir, name))
		require.Contains(t, []int{exitOK, exitGate}, code)
		var r assessment.Result
		require.NoError(t, json.Unmarshal([]byte(stdout), &r))
		return &r
	}
	first, second := decode("a.json"), decode("b.json")
	assert.Equal(t, first.CompositeScore, second.CompositeScore)
	assert.Equal(t, first.DimensionScores, second.DimensionScores)
}

func TestRun_DomainGateFailureExitsOne(t *testing.T) {
	dir := t.TempDir()
	profile := []byte(`
name: Unreachable
rules:
  - name: impossible
    expr: "composite > 255"
    severity: critical
    message: composite can never exceed 255
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unreachable.yaml"), profile, 0o600))

	code, stdout, _ := run(t, "--system", "Atlas", "--seed", "1",
		"--profiles", dir, "--domain", "unreachable",
		"--output", filepath.Join(dir, "out.json"))
	assert.Equal(t, exitGate, code)
	assert.Contains(t, stdout, "Domain Profile: unreachable (FAILED)")
	assert.Contains(t, stdout, "composite can never exceed 255")
}

func TestRun_UnknownDomain(t *testing.T) {
	code, _, stderr := run(t, "--system", "Atlas", "--domain", "space_exploration",
		"--output", filepath.Join(t.TempDir(), "out.json"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "unknown domain profile")
}

func TestRun_ConfigArchiveAndHistory(t *testing.T) {
	dir := t.TempDir()
	archiveDir := filepath.Join(dir, "archive")
	cfgPath := filepath.Join(dir, "agiaef.yaml")
	cfg := "assessment_mode: quick\nparallel_execution: false\narchive:\n  enabled: true\n  type: fs\n  dir: " + archiveDir + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	db := "sqlite://" + filepath.Join(dir, "history.db")

	for i := range 2 {
		code, _, _ := run(t, "--config", cfgPath, "--db", db, "--system", "Atlas",
			"--seed", "3", "--output", filepath.Join(dir, "run", string(rune('a'+i))+".json"))
		require.Contains(t, []int{exitOK, exitGate}, code)
	}

	archived, err := filepath.Glob(filepath.Join(archiveDir, "*.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, archived)

	code, stdout, _ := run(t, "history", "--db", db, "--system", "Atlas")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "CLASSIFICATION")
	// header plus two rows
	assert.Len(t, strings.Split(strings.TrimSpace(stdout), "\n"), 3)

	code, stdout, _ = run(t, "history", "--db", db, "--system", "Nobody")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "No assessments recorded for Nobody")
}

func TestRun_Dimensions(t *testing.T) {
	code, stdout, _ := run(t, "dimensions")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Safety Alignment")
	assert.Len(t, strings.Split(strings.TrimSpace(stdout), "\n"), rubric.Default().Len()+1)

	code, stdout, _ = run(t, "dimensions", "--json")
	require.Equal(t, exitOK, code)
	var dims []rubric.Dimension
	require.NoError(t, json.Unmarshal([]byte(stdout), &dims))
	assert.Len(t, dims, rubric.Default().Len())
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := run(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "framework "+rubric.FrameworkVersion)
}

func TestRun_Verify(t *testing.T) {
	dir := t.TempDir()
	orch, err := assessment.New(
		assessment.WithScorer(scoring.FixedScorer{Fraction: 1}),
		assessment.WithClock(func() time.Time { return time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	result, err := orch.Run(t.Context(), "Atlas", nil)
	require.NoError(t, err)

	reportPath := filepath.Join(dir, "atlas.json")
	require.NoError(t, report.Export(result, reportPath))

	issuer, err := certify.NewIssuer([]byte("test-signing-secret"), appName)
	require.NoError(t, err)
	cert, err := issuer.Issue(result)
	require.NoError(t, err)
	certPath := certify.CertificatePath(reportPath)
	require.NoError(t, certify.Save(cert, certPath))

	code, stdout, _ := run(t, "verify", "--cert", certPath, "--report", reportPath)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "VALID")

	result.SystemName = "Impostor"
	tampered := filepath.Join(dir, "tampered.json")
	require.NoError(t, report.Export(result, tampered))
	code, stdout, _ = run(t, "verify", "--cert", certPath, "--report", tampered)
	assert.Equal(t, exitGate, code)
	assert.Contains(t, stdout, "INVALID")

	code, _, _ = run(t, "verify")
	assert.Equal(t, exitFailure, code)
}
