package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/config"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
)

const appName = "agiaef"

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

// Exit codes:
//
//	0 = assessment completed (and passed the domain gate)
//	1 = assessment completed but failed the domain gate
//	2 = usage or runtime error
const (
	exitOK      = 0
	exitGate    = 1
	exitFailure = 2
)

// errGateFailed marks a run that completed but did not pass its domain
// profile.
var errGateFailed = errors.New("domain gate failed")

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the testable entrypoint.
func Run(args []string, stdout, stderr io.Writer) int {
	root := rootCmd(stdout, stderr)
	root.SetArgs(args[1:])
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errGateFailed):
		return exitGate
	default:
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
	dbURL      string
}

// load reads the config file (falling back to defaults on error) and
// applies flag overrides.
func (g *globalFlags) load(stderr io.Writer, jsonLogs bool) (*config.Config, *slog.Logger) {
	cfg, err := config.Load(g.configPath)
	if g.verbose {
		cfg.LogLevel = "debug"
	}
	if g.dbURL != "" {
		cfg.Storage.DatabaseURL = g.dbURL
	}
	logger := newLogger(stderr, cfg.SlogLevel(), jsonLogs)
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn("configuration problems, falling back to defaults where invalid", "error", err)
	}
	return cfg, logger
}

func newLogger(w io.Writer, level slog.Level, jsonLogs bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	a := &assessFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "AGI-AEF autonomy assessment",
		Long: `agiaef scores an AI system against the AGI Autonomy Evaluation Framework:
twelve weighted dimensions, a 0-255 composite score, a level classification,
an audit verdict and prioritized recommendations.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.seedSet = cmd.Flags().Changed("seed")
			return runAssess(cmd.Context(), g, a, stdout, stderr)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Path to YAML configuration")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&g.dbURL, "db", "", "Assessment history DSN (memory://, sqlite://path, postgres://...)")

	f := cmd.Flags()
	f.StringVarP(&a.system, "system", "s", "", "Name of the system to assess (required)")
	f.StringVarP(&a.output, "output", "o", "", "Result file (default results/<system>_agi_aef_assessment.json)")
	f.Int64Var(&a.seed, "seed", 0, "Seed the simulated scorer for a reproducible run")
	f.StringVar(&a.domain, "domain", "", "Domain profile used to gate the result")
	f.StringVar(&a.profilesDir, "profiles", "", "Directory of additional domain profiles")
	f.BoolVar(&a.json, "json", false, "Print the result as JSON instead of the summary")
	f.BoolVar(&a.breakdown, "breakdown", false, "Add the composite breakdown and test statistics to the summary")
	f.StringVar(&a.probe, "probe", "", "WebAssembly probe module used instead of the simulated scorer")
	f.BoolVar(&a.archive, "archive", false, "Store the report in the artifact archive")
	f.BoolVar(&a.certify, "certify", false, "Write a signed certificate next to the report")
	_ = cmd.MarkFlagRequired("system")

	cmd.AddCommand(
		serveCmd(g, stderr),
		dimensionsCmd(stdout),
		historyCmd(g, stdout, stderr),
		verifyCmd(stdout),
		versionCmd(stdout),
	)
	return cmd
}

func versionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			_, _ = fmt.Fprintf(stdout, "%s version %s (framework %s)\n", appName, Version, rubric.FrameworkVersion)
		},
	}
}
