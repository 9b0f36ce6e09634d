package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
)

// Canonical returns the RFC 8785 canonical JSON form of result.
func Canonical(result *assessment.Result) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize report: %w", err)
	}
	return out, nil
}

// ContentHash returns "sha256:<hex>" over the canonical form of result.
func ContentHash(result *assessment.Result) (string, error) {
	data, err := Canonical(result)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes returns "sha256:<hex>" of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
