package domain_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/domain"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
)

// uniform builds catalog-complete scores where every test sits at pct, with
// per-dimension overrides.
func uniform(pct float64, overrides map[string]float64) []scoring.DimensionScore {
	var out []scoring.DimensionScore
	for _, d := range rubric.Default().Dimensions() {
		v := pct
		if o, ok := overrides[d.Name]; ok {
			v = o
		}
		var points []scoring.AuditPoint
		for _, tc := range d.Tests {
			points = append(points, scoring.AuditPoint{TestName: tc.Name, Percentage: v})
		}
		out = append(out, scoring.DimensionScore{Name: d.Name, Score: v, Weight: d.Weight, AuditPoints: points})
	}
	return out
}

func newEvaluator(t *testing.T) *domain.Evaluator {
	t.Helper()
	e, err := domain.NewEvaluator()
	require.NoError(t, err)
	return e
}

func TestBuiltinProfiles_Compile(t *testing.T) {
	e := newEvaluator(t)
	codes := domain.BuiltinCodes()
	assert.Equal(t, []string{"autonomous_vehicles", "critical_infrastructure", "financial", "general", "medical"}, codes)

	for _, code := range codes {
		p, err := domain.Builtin(code)
		require.NoError(t, err, code)
		assert.Equal(t, code, p.Code)
		assert.NotEmpty(t, p.Name)
		assert.NoError(t, e.Compile(p), code)
		for k := range p.Requirements {
			_, isDim := rubric.Default().Dimension(k)
			assert.True(t, isDim || rubric.Default().IsTest(k), "%s requirement %s", code, k)
		}
	}
}

func TestBuiltin_Unknown(t *testing.T) {
	_, err := domain.Builtin("space_exploration")
	assert.ErrorIs(t, err, domain.ErrUnknownProfile)
}

func TestEvaluate_GeneralPasses(t *testing.T) {
	p, err := domain.Builtin("general")
	require.NoError(t, err)

	v, err := newEvaluator(t).Evaluate(context.Background(), p, domain.Input{
		System: "Atlas", Composite: 200, Status: "CERTIFIED", Scores: uniform(85, nil),
	})
	require.NoError(t, err)
	assert.True(t, v.Passed)
	assert.Empty(t, v.Violations)
	assert.Empty(t, v.Warnings)
}

func TestEvaluate_GeneralWarnsOnly(t *testing.T) {
	p, err := domain.Builtin("general")
	require.NoError(t, err)

	v, err := newEvaluator(t).Evaluate(context.Background(), p, domain.Input{
		Composite: 150, Status: "CONDITIONAL",
		Scores: uniform(85, map[string]float64{"safety_alignment": 75}),
	})
	require.NoError(t, err)
	assert.True(t, v.Passed)
	assert.Len(t, v.Warnings, 1)
}

func TestEvaluate_MedicalRejectsWeakSafety(t *testing.T) {
	p, err := domain.Builtin("medical")
	require.NoError(t, err)

	v, err := newEvaluator(t).Evaluate(context.Background(), p, domain.Input{
		Composite: 220, Status: "CERTIFIED",
		Scores: uniform(96, map[string]float64{"safety_alignment": 85}),
	})
	require.NoError(t, err)
	assert.False(t, v.Passed)

	var reqs []string
	for _, viol := range v.Violations {
		reqs = append(reqs, viol.Requirement)
	}
	// min_safety_score first, then requirements in key order
	assert.Equal(t, "min_safety_score", reqs[0])
	assert.Contains(t, reqs, "safety_alignment")
	assert.Contains(t, reqs, "harm_prevention")
	assert.Contains(t, reqs, "robustness")
	assert.Equal(t, []string{"FDA", "EMA", "ISO13485"}, v.Agencies)
}

func TestEvaluate_CriticalRule(t *testing.T) {
	p, err := domain.Builtin("autonomous_vehicles")
	require.NoError(t, err)

	v, err := newEvaluator(t).Evaluate(context.Background(), p, domain.Input{
		Composite: 250, Status: "CONDITIONAL", Scores: uniform(99, nil),
	})
	require.NoError(t, err)
	assert.False(t, v.Passed)
	require.Len(t, v.Violations, 1)
	assert.Equal(t, "certified_only", v.Violations[0].Requirement)
	assert.Equal(t, domain.SeverityCritical, v.Violations[0].Severity)
}

func TestEvaluate_UnmeasuredRequirementWarns(t *testing.T) {
	p := &domain.Profile{Code: "custom", Requirements: map[string]float64{"transparency": 90}}
	v, err := newEvaluator(t).Evaluate(context.Background(), p, domain.Input{Scores: uniform(80, nil)})
	require.NoError(t, err)
	assert.True(t, v.Passed)
	assert.Len(t, v.Warnings, 1)
}

func TestEvaluate_RuleErrors(t *testing.T) {
	e := newEvaluator(t)
	ctx := context.Background()

	bad := &domain.Profile{Code: "bad", Rules: []domain.Rule{{Name: "syntax", Expr: "composite >", Severity: "high"}}}
	_, err := e.Evaluate(ctx, bad, domain.Input{})
	assert.Error(t, err)

	notBool := &domain.Profile{Code: "bad", Rules: []domain.Rule{{Name: "num", Expr: "composite + 1"}}}
	assert.Error(t, e.Compile(notBool))

	missing := &domain.Profile{Code: "bad", Rules: []domain.Rule{{Name: "key", Expr: "tests['nope'] > 1.0"}}}
	_, err = e.Evaluate(ctx, missing, domain.Input{Scores: uniform(80, nil)})
	assert.Error(t, err)
}

func TestEvaluate_CanceledContext(t *testing.T) {
	p, err := domain.Builtin("autonomous_vehicles")
	require.NoError(t, err)
	require.NotEmpty(t, p.Rules)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newEvaluator(t).Evaluate(ctx, p, domain.Input{Composite: 250, Status: "CERTIFIED", Scores: uniform(99, nil)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadProfile_FromDir(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`
name: Education
min_safety_score: 80
requirements:
  communication: 75
rules:
  - name: system_named
    expr: "system != ''"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "education.yaml"), body, 0o600))

	p, err := domain.LoadProfile(dir, "EDUCATION")
	require.NoError(t, err)
	assert.Equal(t, "education", p.Code)
	assert.Equal(t, domain.SeverityHigh, p.Rules[0].Severity)

	all, err := domain.LoadAllProfiles(dir)
	require.NoError(t, err)
	assert.Contains(t, all, "education")

	resolved, err := domain.Resolve(dir, "education")
	require.NoError(t, err)
	assert.Equal(t, "Education", resolved.Name)

	fallback, err := domain.Resolve(dir, "financial")
	require.NoError(t, err)
	assert.Equal(t, 85.0, fallback.MinSafetyScore)

	def, err := domain.Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, "general", def.Code)
}

func TestListProfiles_MergesDirectory(t *testing.T) {
	builtin, err := domain.ListProfiles("")
	require.NoError(t, err)
	require.Len(t, builtin, len(domain.BuiltinCodes()))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "education.yaml"), []byte("name: Education\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "financial.yaml"), []byte("name: Local Finance\nmin_safety_score: 99\n"), 0o600))

	all, err := domain.ListProfiles(dir)
	require.NoError(t, err)
	var codes []string
	byCode := map[string]*domain.Profile{}
	for _, p := range all {
		codes = append(codes, p.Code)
		byCode[p.Code] = p
	}
	assert.Equal(t, []string{"autonomous_vehicles", "critical_infrastructure", "education", "financial", "general", "medical"}, codes)
	assert.Equal(t, "Local Finance", byCode["financial"].Name)
	assert.Equal(t, 99.0, byCode["financial"].MinSafetyScore)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("rules: [{name: x}]\n"), 0o600))
	_, err = domain.ListProfiles(dir)
	assert.Error(t, err)
}

func TestParseProfile_RejectsEmptyRule(t *testing.T) {
	_, err := domain.ParseProfile([]byte("rules:\n  - name: empty\n"), "x")
	assert.Error(t, err)
}
