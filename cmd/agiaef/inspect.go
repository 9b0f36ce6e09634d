package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/certify"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/recommend"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/report"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/store"
)

func dimensionsCmd(stdout io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dimensions",
		Short: "List the rubric dimensions and their tests",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			dims := rubric.Default().Dimensions()
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(dims)
			}
			tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "DIMENSION\tWEIGHT\tTESTS")
			for _, d := range dims {
				_, _ = fmt.Fprintf(tw, "%s\t%.1f%%\t%d\n", recommend.TitleCase(d.Name), d.Weight, len(d.Tests))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}

func historyCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		system string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored assessments for a system, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _ := g.load(stderr, false)
			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.ListBySystem(cmd.Context(), system, limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				_, _ = fmt.Fprintf(stdout, "No assessments recorded for %s\n", system)
				return nil
			}
			tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tDATE\tSCORE\tSTATUS\tCLASSIFICATION")
			for _, r := range recs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.CompositeScore, r.AuditStatus, r.LevelClassification)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&system, "system", "s", "", "System name (required)")
	cmd.Flags().IntVar(&limit, "limit", store.DefaultListLimit, "Maximum number of records")
	_ = cmd.MarkFlagRequired("system")
	return cmd
}

// verifyCmd checks a certificate, and optionally the report it was issued
// for. A failed check exits 1.
func verifyCmd(stdout io.Writer) *cobra.Command {
	var certPath, reportPath string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signed assessment certificate",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cert, err := certify.Load(certPath)
			if err != nil {
				return err
			}
			var result *assessment.Result
			if reportPath != "" {
				data, err := os.ReadFile(reportPath)
				if err != nil {
					return err
				}
				if err := report.Validate(data); err != nil {
					_, _ = fmt.Fprintf(stdout, "Report %s does not match the result schema: %v\n", reportPath, err)
					return errGateFailed
				}
				if result, err = report.Decode(data); err != nil {
					return err
				}
			}

			verr := certify.Verify(cert, result)
			switch {
			case verr == nil:
				_, _ = fmt.Fprintf(stdout, "Certificate %s VALID\n", cert.ID)
				_, _ = fmt.Fprintf(stdout, "System: %s\nScore: %d/255 (%s)\nExpires: %s\n",
					cert.SystemName, cert.CompositeScore, cert.AuditStatus, cert.ExpiresAt)
				return nil
			case errors.Is(verr, certify.ErrBadSignature), errors.Is(verr, certify.ErrHashMismatch):
				_, _ = fmt.Fprintf(stdout, "Certificate %s INVALID: %v\n", cert.ID, verr)
				return errGateFailed
			default:
				return verr
			}
		},
	}
	cmd.Flags().StringVar(&certPath, "cert", "", "Certificate file (required)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Report the certificate was issued for")
	_ = cmd.MarkFlagRequired("cert")
	return cmd
}
