package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/artifacts"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/audit"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/certify"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/config"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/domain"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/observability"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/report"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/store"
)

type assessFlags struct {
	system      string
	output      string
	seed        int64
	seedSet     bool
	domain      string
	profilesDir string
	json        bool
	breakdown   bool
	probe       string
	archive     bool
	certify     bool
}

func runAssess(ctx context.Context, g *globalFlags, a *assessFlags, stdout, stderr io.Writer) error {
	cfg, logger := g.load(stderr, false)
	if a.seedSet {
		cfg.Seed = &a.seed
	}
	if a.domain != "" {
		cfg.Domain = a.domain
	}
	if a.archive {
		cfg.Archive.Enabled = true
	}
	if err := cfg.CheckFramework(rubric.FrameworkVersion); err != nil {
		return err
	}

	output := a.output
	if output == "" {
		output = report.DefaultPath(a.system)
	}

	profile, err := domain.Resolve(a.profilesDir, cfg.Domain)
	if err != nil {
		return err
	}

	telemetry, err := observability.New(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	opts := []assessment.Option{
		assessment.WithMode(cfg.AssessmentMode),
		assessment.WithParallel(cfg.ParallelExecution),
		assessment.WithLogger(logger.With("component", "assessment")),
		assessment.WithTelemetry(telemetry),
	}
	if cfg.DetailedLogging {
		opts = append(opts, assessment.WithAuditLogger(audit.NewLoggerWithWriter(stderr)))
	}
	if cfg.Seed != nil {
		opts = append(opts, assessment.WithSeed(*cfg.Seed))
	}
	if a.probe != "" {
		probe, err := scoring.LoadWASMScorer(ctx, a.probe, scoring.WASMConfig{
			MemoryLimitBytes: 64 << 20,
			CallTimeout:      5 * time.Second,
		})
		if err != nil {
			return err
		}
		defer probe.Close(context.Background())
		opts = append(opts, assessment.WithScorer(probe))
	}

	orch, err := assessment.New(opts...)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutMinutes)*time.Minute)
	defer cancel()

	logger.Info("Starting AGI-AEF assessment", "system", a.system, "mode", cfg.AssessmentMode, "domain", profile.Code)
	result, err := orch.Run(runCtx, a.system, nil)
	if err != nil {
		return err
	}

	evaluator, err := domain.NewEvaluator()
	if err != nil {
		return err
	}
	validation, err := evaluator.Evaluate(runCtx, profile, result.DomainInput())
	if err != nil {
		return err
	}

	if err := report.Export(result, output); err != nil {
		return fmt.Errorf("export result: %w", err)
	}
	hash, err := report.ContentHash(result)
	if err != nil {
		return err
	}

	if err := saveHistory(ctx, cfg, result, hash, logger); err != nil {
		return err
	}
	if cfg.Archive.Enabled {
		if err := archiveReport(ctx, cfg, result, logger); err != nil {
			return err
		}
	}
	if a.certify {
		if err := writeCertificate(cfg, result, output, logger); err != nil {
			return err
		}
	}

	if a.json {
		data, err := report.Marshal(result)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, string(data))
	} else {
		if err := report.WriteSummary(stdout, result, output); err != nil {
			return err
		}
		if a.breakdown {
			if err := report.WriteBreakdown(stdout, report.Explain(result)); err != nil {
				return err
			}
		}
		writeValidation(stdout, validation)
	}

	if !validation.Passed {
		return errGateFailed
	}
	return nil
}

func telemetryConfig(cfg *config.Config) *observability.Config {
	tc := observability.DefaultConfig()
	tc.ServiceVersion = Version
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Insecure = cfg.Telemetry.Insecure
	tc.SampleRate = cfg.Telemetry.SampleRate
	if cfg.Telemetry.OTLPEndpoint != "" {
		tc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	}
	return tc
}

// openStore opens the configured history store, behind a Redis cache when
// one is configured.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	s, err := store.Open(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.RedisAddr != "" {
		return store.NewRedisCache(s, cfg.Storage.RedisAddr, time.Hour), nil
	}
	return s, nil
}

func saveHistory(ctx context.Context, cfg *config.Config, result *assessment.Result, hash string, logger *slog.Logger) error {
	if cfg.Storage.DatabaseURL == "" || cfg.Storage.DatabaseURL == "memory://" {
		return nil
	}
	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := store.NewRecord(result, hash)
	if err != nil {
		return err
	}
	if err := s.Save(ctx, rec); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	logger.Info("Assessment recorded", "id", rec.ID, "system", rec.SystemName)
	return nil
}

func archiveReport(ctx context.Context, cfg *config.Config, result *assessment.Result, logger *slog.Logger) error {
	ac := artifacts.Config{
		Type:     artifacts.StoreType(cfg.Archive.Type),
		Dir:      cfg.Archive.Dir,
		Bucket:   cfg.Archive.Bucket,
		Region:   cfg.Archive.Region,
		Endpoint: cfg.Archive.Endpoint,
		Prefix:   cfg.Archive.Prefix,
	}.Merge(artifacts.ConfigFromEnv())
	s, err := artifacts.NewStore(ctx, ac)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	digest, err := artifacts.PutReport(ctx, s, result)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	logger.Info("Report archived", "digest", digest, "backend", string(ac.Type))
	return nil
}

func writeCertificate(cfg *config.Config, result *assessment.Result, output string, logger *slog.Logger) error {
	var (
		issuer *certify.Issuer
		err    error
	)
	if cfg.Server.SigningSecret != "" {
		issuer, err = certify.NewIssuer([]byte(cfg.Server.SigningSecret), appName)
	} else {
		logger.Warn("AGIAEF_SIGNING_SECRET not set, signing with an ephemeral key")
		issuer, err = certify.NewEphemeralIssuer()
	}
	if err != nil {
		return err
	}

	cert, err := issuer.Issue(result)
	if errors.Is(err, certify.ErrNotCertifiable) {
		logger.Warn("No certificate issued", "audit_status", result.AuditStatus)
		return nil
	}
	if err != nil {
		return err
	}
	path := certify.CertificatePath(output)
	if err := certify.Save(cert, path); err != nil {
		return fmt.Errorf("save certificate: %w", err)
	}
	logger.Info("Certificate issued", "id", cert.ID, "path", path)
	return nil
}

func writeValidation(w io.Writer, v *domain.Validation) {
	verdict := "PASSED"
	if !v.Passed {
		verdict = "FAILED"
	}
	_, _ = fmt.Fprintf(w, "Domain Profile: %s (%s)\n", v.Profile, verdict)
	for _, viol := range v.Violations {
		_, _ = fmt.Fprintf(w, "  [%s] %s\n", viol.Severity, viol.Message)
	}
	for _, warn := range v.Warnings {
		_, _ = fmt.Fprintf(w, "  [warning] %s\n", warn)
	}
}
