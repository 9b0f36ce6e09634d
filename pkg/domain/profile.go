// Package domain holds deployment profiles: per-domain minimum scores and
// CEL rules that gate whether an assessed system may be deployed there.
package domain

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCode is the profile used when none is requested.
const DefaultCode = "general"

// ErrUnknownProfile is returned when no profile has the requested code.
var ErrUnknownProfile = errors.New("unknown domain profile")

//go:embed profiles/*.yaml
var builtinFS embed.FS

// Severity ranks a rule violation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityWarning  Severity = "warning"
)

// Blocking reports whether a violation of this severity fails the gate.
func (s Severity) Blocking() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// Rule is a named CEL expression that must evaluate to true.
type Rule struct {
	Name     string   `yaml:"name" json:"name"`
	Expr     string   `yaml:"expr" json:"expr"`
	Severity Severity `yaml:"severity" json:"severity"`
	Message  string   `yaml:"message" json:"message"`
}

// Profile describes the requirements of one deployment domain.
type Profile struct {
	Code           string             `yaml:"code" json:"code"`
	Name           string             `yaml:"name" json:"name"`
	Description    string             `yaml:"description" json:"description"`
	MinSafetyScore float64            `yaml:"min_safety_score" json:"min_safety_score"`
	Agencies       []string           `yaml:"agencies,omitempty" json:"agencies,omitempty"`
	Requirements   map[string]float64 `yaml:"requirements,omitempty" json:"requirements,omitempty"`
	Rules          []Rule             `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// ParseProfile decodes a YAML profile. fallbackCode fills an empty code.
func ParseProfile(data []byte, fallbackCode string) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Code == "" {
		p.Code = fallbackCode
	}
	for i := range p.Rules {
		if p.Rules[i].Severity == "" {
			p.Rules[i].Severity = SeverityHigh
		}
		if p.Rules[i].Expr == "" {
			return nil, fmt.Errorf("rule %q has no expression", p.Rules[i].Name)
		}
	}
	return &p, nil
}

// LoadProfile loads <dir>/<code>.yaml.
func LoadProfile(dir, code string) (*Profile, error) {
	code = strings.ToLower(code)
	path := filepath.Join(dir, code+".yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", code, err)
	}
	p, err := ParseProfile(data, code)
	if err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", code, err)
	}
	return p, nil
}

// LoadAllProfiles loads every *.yaml profile in dir.
func LoadAllProfiles(dir string) (map[string]*Profile, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*Profile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		code := strings.TrimSuffix(filepath.Base(path), ".yaml")
		p, err := ParseProfile(data, code)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		profiles[p.Code] = p
	}
	return profiles, nil
}

// Builtin returns the embedded profile for code.
func Builtin(code string) (*Profile, error) {
	code = strings.ToLower(code)
	data, err := builtinFS.ReadFile("profiles/" + code + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownProfile, code)
	}
	return ParseProfile(data, code)
}

// BuiltinCodes lists the embedded profile codes, sorted.
func BuiltinCodes() []string {
	entries, _ := builtinFS.ReadDir("profiles")
	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(codes)
	return codes
}

// ListProfiles returns the embedded profiles merged with those in dir (when
// set), sorted by code. A profile in dir replaces the embedded one of the same
// code.
func ListProfiles(dir string) ([]*Profile, error) {
	byCode := make(map[string]*Profile)
	for _, code := range BuiltinCodes() {
		p, err := Builtin(code)
		if err != nil {
			return nil, err
		}
		byCode[code] = p
	}
	if dir != "" {
		local, err := LoadAllProfiles(dir)
		if err != nil {
			return nil, err
		}
		for code, p := range local {
			byCode[code] = p
		}
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]*Profile, 0, len(codes))
	for _, code := range codes {
		out = append(out, byCode[code])
	}
	return out, nil
}

// Resolve finds a profile by code, preferring dir (when set) over the
// embedded set.
func Resolve(dir, code string) (*Profile, error) {
	if code == "" {
		code = DefaultCode
	}
	if dir != "" {
		p, err := LoadProfile(dir, code)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return Builtin(code)
}
