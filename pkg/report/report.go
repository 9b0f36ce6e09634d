// Package report persists assessment results and renders them for humans.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
)

// DefaultPath is the export location used when no output path is given.
func DefaultPath(system string) string {
	return filepath.Join("results", system+"_agi_aef_assessment.json")
}

// Marshal renders result as indented JSON.
func Marshal(result *assessment.Result) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// Export writes result to path, creating parent directories as needed.
func Export(result *assessment.Result, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	data, err := Marshal(result)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	slog.Info("Results exported", "path", path)
	return nil
}

// Read loads a previously exported result.
func Read(path string) (*assessment.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return Decode(data)
}

// Decode parses an exported result document.
func Decode(data []byte) (*assessment.Result, error) {
	var r assessment.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
