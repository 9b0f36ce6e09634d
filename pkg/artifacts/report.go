package artifacts

import (
	"context"
	"fmt"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/report"
)

// PutReport archives result in canonical form. The returned digest equals
// report.ContentHash(result).
func PutReport(ctx context.Context, s Store, result *assessment.Result) (string, error) {
	data, err := report.Canonical(result)
	if err != nil {
		return "", err
	}
	digest, err := s.Put(ctx, data)
	if err != nil {
		return "", fmt.Errorf("archive report: %w", err)
	}
	return digest, nil
}

// GetReport loads an archived report and checks it against its digest.
func GetReport(ctx context.Context, s Store, digest string) (*assessment.Result, error) {
	data, err := s.Get(ctx, digest)
	if err != nil {
		return nil, err
	}
	if got := Digest(data); got != digest {
		return nil, fmt.Errorf("archived report %s is corrupt (digest %s)", digest, got)
	}
	return report.Decode(data)
}
