// Package config loads the assessment configuration: a YAML overlay on top of
// documented defaults, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Assessment modes.
const (
	ModeComprehensive = "comprehensive"
	ModeStandard      = "standard"
	ModeQuick         = "quick"
)

// ErrIncompatibleFramework is returned by CheckFramework.
var ErrIncompatibleFramework = errors.New("config: framework version not accepted by constraint")

// Config holds assessment and service configuration.
type Config struct {
	AssessmentMode       string `yaml:"assessment_mode" json:"assessment_mode" validate:"oneof=comprehensive standard quick"`
	TimeoutMinutes       int    `yaml:"timeout_minutes" json:"timeout_minutes" validate:"gt=0,lte=10080"`
	ParallelExecution    bool   `yaml:"parallel_execution" json:"parallel_execution"`
	DetailedLogging      bool   `yaml:"detailed_logging" json:"detailed_logging"`
	ThirdPartyValidation bool   `yaml:"third_party_validation" json:"third_party_validation"`

	// Seed fixes the scorer's random source. Nil means time-seeded.
	Seed *int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
	// Domain selects the deployment profile used for gating.
	Domain string `yaml:"domain" json:"domain" validate:"required,max=64,profile_code"`
	// FrameworkConstraint is a semver constraint the rubric version must meet.
	FrameworkConstraint string `yaml:"framework_constraint,omitempty" json:"framework_constraint,omitempty"`
	LogLevel            string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Archive   ArchiveConfig   `yaml:"archive" json:"archive"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Server    ServerConfig    `yaml:"server" json:"server"`
}

// StorageConfig selects the assessment history backend.
type StorageConfig struct {
	// DatabaseURL is memory://, sqlite://<path> or postgres://...
	DatabaseURL string `yaml:"database_url" json:"database_url"`
	RedisAddr   string `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty"`
}

// ArchiveConfig selects where exported reports are archived.
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Type     string `yaml:"type" json:"type" validate:"omitempty,oneof=fs s3 gcs"`
	Dir      string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Bucket   string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Region   string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint,omitempty" json:"otlp_endpoint,omitempty"`
	Insecure     bool    `yaml:"insecure" json:"insecure"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate" validate:"gte=0,lte=1"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr" json:"addr"`
	RateLimit      float64  `yaml:"rate_limit" json:"rate_limit" validate:"gte=0"`
	RateBurst      int      `yaml:"rate_burst" json:"rate_burst" validate:"gte=0"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" json:"allowed_origins,omitempty"`
	// JWTSecret enables bearer authentication. Environment only.
	JWTSecret string `yaml:"-" json:"-"`
	// SigningSecret derives the certificate signing key. Environment only.
	SigningSecret string `yaml:"-" json:"-"`
}

// Default returns the documented defaults.
func Default() *Config {
	return &Config{
		AssessmentMode:       ModeComprehensive,
		TimeoutMinutes:       120,
		ParallelExecution:    true,
		DetailedLogging:      true,
		ThirdPartyValidation: false,
		Domain:               "general",
		LogLevel:             "info",
		Storage: StorageConfig{
			DatabaseURL: "memory://",
		},
		Archive: ArchiveConfig{
			Type: "fs",
			Dir:  "data/archive",
		},
		Telemetry: TelemetryConfig{
			SampleRate: 1.0,
			Insecure:   true,
		},
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 5,
			RateBurst: 10,
		},
	}
}

var (
	validate        = newValidator()
	profileCodeExpr = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("profile_code", func(fl validator.FieldLevel) bool {
		return profileCodeExpr.MatchString(fl.Field().String())
	})
	return v
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path or a missing file yields the defaults with a nil
// error. An unreadable, malformed or invalid file also yields the defaults,
// together with an error describing the problem; callers log it and go on.
// Invalid environment values are skipped the same way.
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		cfg = Default()
	}
	if envErr := ApplyEnv(cfg); envErr != nil {
		err = errors.Join(err, envErr)
	}
	return cfg, err
}

func loadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.FrameworkConstraint != "" {
		if _, err := semver.NewConstraint(c.FrameworkConstraint); err != nil {
			return fmt.Errorf("invalid framework_constraint %q: %w", c.FrameworkConstraint, err)
		}
	}
	return nil
}

// CheckFramework verifies version satisfies FrameworkConstraint. An empty
// constraint accepts any version.
func (c *Config) CheckFramework(version string) error {
	if c.FrameworkConstraint == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(c.FrameworkConstraint)
	if err != nil {
		return fmt.Errorf("invalid framework_constraint %q: %w", c.FrameworkConstraint, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("framework version %q: %w", version, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrIncompatibleFramework, version, c.FrameworkConstraint)
	}
	return nil
}

// ApplyEnv overlays AGIAEF_* environment variables. Values that fail
// validation are skipped, leaving the current setting, and reported in the
// returned error.
func ApplyEnv(c *Config) error {
	var errs []error
	if v := os.Getenv("AGIAEF_LOG_LEVEL"); v != "" {
		level := strings.ToLower(v)
		if err := validate.Var(level, "oneof=debug info warn error"); err != nil {
			errs = append(errs, fmt.Errorf("AGIAEF_LOG_LEVEL %q: want debug, info, warn or error", v))
		} else {
			c.LogLevel = level
		}
	}
	if v := os.Getenv("AGIAEF_DOMAIN"); v != "" {
		if err := validate.Var(v, "max=64,profile_code"); err != nil {
			errs = append(errs, fmt.Errorf("AGIAEF_DOMAIN %q: not a profile code", v))
		} else {
			c.Domain = v
		}
	}
	if v := os.Getenv("AGIAEF_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = &seed
		} else {
			errs = append(errs, fmt.Errorf("AGIAEF_SEED %q: %w", v, err))
		}
	}
	if v := os.Getenv("AGIAEF_DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := os.Getenv("AGIAEF_REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("AGIAEF_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OTLPEndpoint = v
		c.Telemetry.Enabled = true
	}
	if v := os.Getenv("AGIAEF_LISTEN_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("AGIAEF_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("AGIAEF_SIGNING_SECRET"); v != "" {
		c.Server.SigningSecret = v
	}

	if err := c.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("after environment overrides: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("environment: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel maps LogLevel onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
