package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/audit"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/observability"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/recommend"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/schedule"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/tiers"
)

// Orchestrator drives an assessment from dimension scoring to scheduling.
type Orchestrator struct {
	catalog        *rubric.Catalog
	scorer         scoring.Scorer
	mode           string
	parallel       bool
	maxConcurrency int
	clock          func() time.Time
	logger         *slog.Logger
	telemetry      *observability.Provider
	auditLog       audit.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCatalog replaces the default rubric.
func WithCatalog(c *rubric.Catalog) Option {
	return func(o *Orchestrator) { o.catalog = c }
}

// WithScorer sets the test scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

// WithSeed uses a simulated scorer seeded with seed.
func WithSeed(seed int64) Option {
	return func(o *Orchestrator) { o.scorer = scoring.NewSeededScorer(seed) }
}

// WithRand uses a simulated scorer drawing from rng.
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) { o.scorer = scoring.NewSimulatedScorer(rng) }
}

// WithMode labels runs with an assessment mode (comprehensive, standard,
// quick). The mode is reported in telemetry only.
func WithMode(mode string) Option {
	return func(o *Orchestrator) { o.mode = mode }
}

// WithParallel toggles concurrent dimension assessment.
func WithParallel(enabled bool) Option {
	return func(o *Orchestrator) { o.parallel = enabled }
}

// WithMaxConcurrency bounds the number of dimensions assessed at once.
// Zero or less means one goroutine per dimension.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) { o.maxConcurrency = n }
}

// WithClock overrides the wall clock used for dates.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTelemetry traces runs and dimensions through p.
func WithTelemetry(p *observability.Provider) Option {
	return func(o *Orchestrator) { o.telemetry = p }
}

// WithAuditLogger records an audit event per completed run.
func WithAuditLogger(l audit.Logger) Option {
	return func(o *Orchestrator) { o.auditLog = l }
}

// New creates an orchestrator. Without a scorer option it uses a simulated
// scorer seeded from the current time.
func New(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		catalog:  rubric.Default(),
		clock:    time.Now,
		logger:   slog.Default().With("component", "assessment"),
		auditLog: audit.Nop{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.scorer == nil {
		o.scorer = scoring.NewSeededScorer(time.Now().UnixNano())
	}
	if err := o.catalog.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Catalog returns the rubric in use.
func (o *Orchestrator) Catalog() *rubric.Catalog { return o.catalog }

// Run assesses systemName against every dimension in catalog order. subject
// is handed to the scorer unchanged.
func (o *Orchestrator) Run(ctx context.Context, systemName string, subject any) (res *Result, err error) {
	started := o.clock()
	_, splittable := o.scorer.(scoring.Splitter)
	parallel := o.parallel && splittable

	o.logger.InfoContext(ctx, "Starting AGI-AEF assessment", "system", systemName, "parallel", parallel)

	if o.telemetry != nil {
		var finish func(error)
		ctx, finish = o.telemetry.TrackOperation(ctx, "assessment.run",
			observability.AssessmentOperation(systemName, o.mode, parallel)...)
		defer func() { finish(err) }()
	}

	var scores []scoring.DimensionScore
	if parallel {
		scores, err = o.assessParallel(ctx, subject)
	} else {
		scores, err = o.assessSequential(ctx, subject)
	}
	if err != nil {
		return nil, fmt.Errorf("assess %s: %w", systemName, err)
	}

	composite := scoring.Composite(scores)
	status, err := audit.Adjudicate(scores)
	if err != nil {
		return nil, err
	}

	res = &Result{
		SystemName:          systemName,
		AssessmentDate:      started.Format(DateLayout),
		FrameworkVersion:    rubric.FrameworkVersion,
		CompositeScore:      composite,
		LevelClassification: tiers.Classify(composite),
		DimensionScores:     DimensionMap(scores),
		DetailedScores:      scores,
		AuditStatus:         status,
		Recommendations:     recommend.Recommend(scores),
		NextAssessmentDue:   schedule.NextDue(composite, started),
	}

	if o.telemetry != nil {
		o.telemetry.RecordAssessment(ctx, composite, string(status), res.DimensionScores)
	}
	if aerr := o.auditLog.Record(ctx, audit.EventAssessment, "assessment.completed", systemName, map[string]any{
		"composite_score": composite,
		"audit_status":    status,
		"classification":  res.LevelClassification,
	}); aerr != nil {
		o.logger.WarnContext(ctx, "audit record failed", "error", aerr)
	}

	o.logger.InfoContext(ctx, "Assessment completed",
		"system", systemName,
		"composite", fmt.Sprintf("%d/255", composite),
		"status", status,
	)
	return res, nil
}

func (o *Orchestrator) assessSequential(ctx context.Context, subject any) ([]scoring.DimensionScore, error) {
	assessor := scoring.NewAssessor(o.catalog, o.scorer).WithLogger(o.logger)
	names := o.catalog.Names()
	scores := make([]scoring.DimensionScore, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds, err := o.assessOne(ctx, assessor, name, subject)
		if err != nil {
			return nil, err
		}
		scores = append(scores, ds)
	}
	return scores, nil
}

// assessParallel gives each dimension its own child scorer, split from the
// parent in catalog order, so results match a sequential run.
func (o *Orchestrator) assessParallel(ctx context.Context, subject any) ([]scoring.DimensionScore, error) {
	names := o.catalog.Names()
	counts := make([]int, len(names))
	for i, name := range names {
		dim, _ := o.catalog.Dimension(name)
		counts[i] = len(dim.Tests)
	}
	children := o.scorer.(scoring.Splitter).Split(counts)
	base := scoring.NewAssessor(o.catalog, o.scorer).WithLogger(o.logger)
	scores := make([]scoring.DimensionScore, len(names))

	g, gctx := errgroup.WithContext(ctx)
	if o.maxConcurrency > 0 {
		g.SetLimit(o.maxConcurrency)
	}
	for i, name := range names {
		assessor := base.WithScorer(children[i])
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := o.assessOne(gctx, assessor, name, subject)
			if err != nil {
				return err
			}
			scores[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

func (o *Orchestrator) assessOne(ctx context.Context, a *scoring.Assessor, name string, subject any) (ds scoring.DimensionScore, err error) {
	if o.telemetry != nil {
		var finish func(error)
		ctx, finish = o.telemetry.TrackOperation(ctx, "assessment.dimension",
			observability.DimensionOperation(name)...)
		defer func() { finish(err) }()
	}
	ds, err = a.Assess(ctx, name, subject)
	if err != nil {
		return ds, err
	}
	o.logger.DebugContext(ctx, "dimension assessed",
		"dimension", name, "score", fmt.Sprintf("%.1f", ds.Score), "status", ds.ValidationStatus)
	return ds, nil
}
