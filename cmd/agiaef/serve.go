package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/api"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/audit"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/metrics"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/observability"
)

func serveCmd(g *globalFlags, stderr io.Writer) *cobra.Command {
	var (
		addr        string
		profilesDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assessment HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := g.load(stderr, true)
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			telemetry, err := observability.New(ctx, telemetryConfig(cfg))
			if err != nil {
				return err
			}
			defer func() { _ = telemetry.Shutdown(cmd.Context()) }()

			history, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer history.Close()

			opts := []assessment.Option{
				assessment.WithMode(cfg.AssessmentMode),
				assessment.WithParallel(cfg.ParallelExecution),
				assessment.WithTelemetry(telemetry),
			}
			if cfg.Seed != nil {
				opts = append(opts, assessment.WithSeed(*cfg.Seed))
			}

			srv, err := api.New(api.Config{
				Assessment:     opts,
				Store:          history,
				Metrics:        metrics.New(),
				Audit:          audit.NewLoggerWithWriter(stderr),
				ProfilesDir:    profilesDir,
				DefaultDomain:  cfg.Domain,
				Version:        Version,
				RateLimit:      cfg.Server.RateLimit,
				RateBurst:      cfg.Server.RateBurst,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				JWTSecret:      cfg.Server.JWTSecret,
				Logger:         logger,
			})
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				logger.Warn("AGIAEF_JWT_SECRET not set, API authentication disabled")
			}
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().StringVar(&profilesDir, "profiles", "", "Directory of additional domain profiles")
	return cmd
}
