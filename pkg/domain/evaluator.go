package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
)

// Input is what a profile is evaluated against.
type Input struct {
	System    string
	Composite int
	Status    string
	Scores    []scoring.DimensionScore
}

// Violation is one unmet requirement or failed rule.
type Violation struct {
	Requirement string   `json:"requirement"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Actual      *float64 `json:"actual,omitempty"`
	Required    *float64 `json:"required,omitempty"`
}

// Validation is the outcome of gating a result against a profile.
type Validation struct {
	Profile    string      `json:"profile"`
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations"`
	Warnings   []string    `json:"warnings"`
	Agencies   []string    `json:"agencies,omitempty"`
}

// Evaluator checks inputs against profiles. Compiled rule programs are
// cached and shared across calls.
type Evaluator struct {
	env      *cel.Env
	mu       sync.RWMutex
	prgCache map[string]cel.Program
	logger   *slog.Logger
}

// NewEvaluator creates an evaluator with the rule environment:
// dimensions and tests (map of name to percentage), composite, status, system.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("dimensions", cel.MapType(cel.StringType, cel.DoubleType)),
		cel.Variable("tests", cel.MapType(cel.StringType, cel.DoubleType)),
		cel.Variable("composite", cel.IntType),
		cel.Variable("status", cel.StringType),
		cel.Variable("system", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{
		env:      env,
		prgCache: make(map[string]cel.Program),
		logger:   slog.Default().With("component", "domain"),
	}, nil
}

// Evaluate gates in against p. Requirement keys name a dimension or, failing
// that, a test (compared with the audit-point percentage). Keys that match
// neither produce a warning. Rule errors are returned, not treated as
// violations.
func (e *Evaluator) Evaluate(ctx context.Context, p *Profile, in Input) (*Validation, error) {
	dims, tests := flatten(in.Scores)
	v := &Validation{
		Profile:    p.Code,
		Violations: []Violation{},
		Warnings:   []string{},
		Agencies:   p.Agencies,
	}

	if p.MinSafetyScore > 0 {
		safety, ok := dims[rubric.SafetyAlignment]
		if !ok || safety < p.MinSafetyScore {
			v.Violations = append(v.Violations, Violation{
				Requirement: "min_safety_score",
				Severity:    SeverityCritical,
				Message: fmt.Sprintf("safety alignment %.1f%% below %s minimum %.1f%%",
					safety, p.Code, p.MinSafetyScore),
				Actual:   ptr(safety),
				Required: ptr(p.MinSafetyScore),
			})
		}
	}

	keys := make([]string, 0, len(p.Requirements))
	for k := range p.Requirements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		required := p.Requirements[k]
		actual, ok := dims[k]
		if !ok {
			actual, ok = tests[k]
		}
		if !ok {
			v.Warnings = append(v.Warnings, fmt.Sprintf("requirement %q is not measured by the rubric", k))
			continue
		}
		if actual < required {
			v.Violations = append(v.Violations, Violation{
				Requirement: k,
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("%s %.1f%% below required %.1f%%", k, actual, required),
				Actual:      ptr(actual),
				Required:    ptr(required),
			})
		}
	}

	vars := map[string]any{
		"dimensions": dims,
		"tests":      tests,
		"composite":  int64(in.Composite),
		"status":     in.Status,
		"system":     in.System,
	}
	for _, r := range p.Rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := e.evaluateExpr(ctx, r.Expr, vars)
		if err != nil {
			return nil, fmt.Errorf("profile %s rule %s: %w", p.Code, r.Name, err)
		}
		if ok {
			continue
		}
		if r.Severity.Blocking() {
			v.Violations = append(v.Violations, Violation{
				Requirement: r.Name,
				Severity:    r.Severity,
				Message:     r.Message,
			})
		} else {
			v.Warnings = append(v.Warnings, r.Message)
		}
	}

	v.Passed = true
	for _, viol := range v.Violations {
		if viol.Severity.Blocking() {
			v.Passed = false
			break
		}
	}
	e.logger.DebugContext(ctx, "profile evaluated",
		"profile", p.Code, "system", in.System, "passed", v.Passed, "violations", len(v.Violations))
	return v, nil
}

// Compile checks every rule of p without evaluating it.
func (e *Evaluator) Compile(p *Profile) error {
	for _, r := range p.Rules {
		if _, err := e.program(r.Expr); err != nil {
			return fmt.Errorf("profile %s rule %s: %w", p.Code, r.Name, err)
		}
	}
	return nil
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.prgCache[expr]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, hit = e.prgCache[expr]; hit {
		return prg, nil
	}
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("compile: expression yields %s, want bool", ast.OutputType())
	}
	p, err := e.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	e.prgCache[expr] = p
	return p, nil
}

func (e *Evaluator) evaluateExpr(ctx context.Context, expr string, vars map[string]any) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("eval: %w", err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("result not bool")
	}
	return val, nil
}

func flatten(scores []scoring.DimensionScore) (map[string]float64, map[string]float64) {
	dims := make(map[string]float64, len(scores))
	tests := make(map[string]float64, len(scores)*rubric.TestsPerDimension)
	for _, s := range scores {
		dims[s.Name] = s.Score
		for _, p := range s.AuditPoints {
			tests[p.TestName] = p.Percentage
		}
	}
	return dims, tests
}

func ptr(f float64) *float64 { return &f }
