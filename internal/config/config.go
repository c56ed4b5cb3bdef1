// Package config loads the server configuration. Values come from the
// environment, an optional .env file, and an optional jinwoo.yaml file, in
// that order of precedence. CLI flags decide which services are mocked.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/jinwoo-notes/jinwoo/internal/obs"
	"github.com/jinwoo-notes/jinwoo/internal/ratelimit"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr string `mapstructure:"listen_addr" validate:"required"`
	BaseURL    string `mapstructure:"base_url"`

	// Database and encryption
	DataDir   string `mapstructure:"data_dir" validate:"required"`
	MasterKey string `mapstructure:"master_key" validate:"required,len=64,hexadecimal"`

	// Sessions
	SessionDuration        time.Duration `mapstructure:"session_duration" validate:"gt=0"`
	SessionCleanupSchedule string        `mapstructure:"session_cleanup_schedule" validate:"required,cronspec"`

	// Rate limiting
	RateLimitRPS             float64       `mapstructure:"rate_limit_rps" validate:"gt=0"`
	RateLimitBurst           int           `mapstructure:"rate_limit_burst" validate:"gt=0"`
	RateLimitCleanupInterval time.Duration `mapstructure:"rate_limit_cleanup_interval" validate:"gt=0"`

	// Logging
	LogLevel      string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb" validate:"gte=0"`
	LogMaxBackups int    `mapstructure:"log_max_backups" validate:"gte=0"`

	// Resend Email
	ResendAPIKey    string `mapstructure:"resend_api_key"`
	ResendFromEmail string `mapstructure:"resend_from_email" validate:"required,email"`

	// Exports
	ExportDir string `mapstructure:"export_dir" validate:"required"`

	// S3 (uses the standard AWS_ env vars)
	AWSEndpointS3      string `mapstructure:"aws_endpoint_url_s3" validate:"omitempty,url"`
	AWSRegion          string `mapstructure:"aws_region"`
	AWSAccessKeyID     string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey string `mapstructure:"aws_secret_access_key"`
	BucketName         string `mapstructure:"bucket_name"`

	// WebDAV export target
	WebDAVURL      string `mapstructure:"webdav_url" validate:"omitempty,url"`
	WebDAVUser     string `mapstructure:"webdav_user"`
	WebDAVPassword string `mapstructure:"webdav_password"`

	// Mock service flags (controlled by CLI flags, not env vars)
	NoEmail bool `mapstructure:"-"` // If true, use mock email service (--no-email)
	NoS3    bool `mapstructure:"-"` // If true, use in-memory S3 (--no-s3)
}

// Flags are the CLI inputs that affect configuration.
type Flags struct {
	NoEmail    bool
	NoS3       bool
	Test       bool   // Shorthand for --no-email --no-s3
	Addr       string // Overrides LISTEN_ADDR when non-empty
	ConfigFile string // Explicit jinwoo.yaml path
	EnvFile    string // Explicit .env path
}

var defaults = map[string]any{
	"listen_addr":                 ":8080",
	"base_url":                    "",
	"data_dir":                    "./data",
	"master_key":                  "",
	"session_duration":            "720h",
	"session_cleanup_schedule":    "@every 1h",
	"rate_limit_rps":              ratelimit.DefaultConfig.RPS,
	"rate_limit_burst":            ratelimit.DefaultConfig.Burst,
	"rate_limit_cleanup_interval": ratelimit.DefaultConfig.CleanupInterval.String(),
	"log_level":                   "info",
	"log_file":                    "",
	"log_max_size_mb":             100,
	"log_max_backups":             5,
	"resend_api_key":              "",
	"resend_from_email":           "noreply@jinwoo.app",
	"export_dir":                  "./exports",
	"aws_endpoint_url_s3":         "",
	"aws_region":                  "auto",
	"aws_access_key_id":           "",
	"aws_secret_access_key":       "",
	"bucket_name":                 "",
	"webdav_url":                  "",
	"webdav_user":                 "",
	"webdav_password":             "",
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// LoadConfig loads configuration from the environment and files, applies
// the flag values, and validates the result.
func LoadConfig(flags Flags) (*Config, error) {
	if err := loadDotEnv(flags.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags.ConfigFile != "" {
		v.SetConfigFile(flags.ConfigFile)
	} else {
		v.SetConfigName("jinwoo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if flags.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.normalize()

	cfg.NoEmail = flags.NoEmail || flags.Test
	cfg.NoS3 = flags.NoS3 || flags.Test
	if flags.Addr != "" {
		cfg.ListenAddr = flags.Addr
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost" + cfg.ListenAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads path, or ./.env when path is empty. Variables already in
// the environment win. A missing default .env is not an error.
func loadDotEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.MasterKey = strings.TrimSpace(c.MasterKey)
	c.AWSEndpointS3 = strings.TrimSpace(c.AWSEndpointS3)
	c.AWSAccessKeyID = strings.TrimSpace(c.AWSAccessKeyID)
	c.AWSSecretAccessKey = strings.TrimSpace(c.AWSSecretAccessKey)
	c.BucketName = strings.TrimSpace(c.BucketName)
	c.WebDAVURL = strings.TrimSpace(c.WebDAVURL)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their environment variable name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("mapstructure")
		if name == "-" {
			return ""
		}
		return strings.ToUpper(name)
	})
	_ = v.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks that all required configuration is present and valid.
// When mocks are NOT active for a service, the corresponding secrets are required.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	// Email: require Resend API key unless --no-email
	if !c.NoEmail && c.ResendAPIKey == "" {
		problems = append(problems, "RESEND_API_KEY is required (set env var or use --no-email)")
	}

	// S3: require AWS credentials unless --no-s3
	if !c.NoS3 {
		for _, req := range []struct{ name, value string }{
			{"AWS_ENDPOINT_URL_S3", c.AWSEndpointS3},
			{"BUCKET_NAME", c.BucketName},
			{"AWS_ACCESS_KEY_ID", c.AWSAccessKeyID},
			{"AWS_SECRET_ACCESS_KEY", c.AWSSecretAccessKey},
		} {
			if req.value == "" {
				problems = append(problems, req.name+" is required (set env var or use --no-s3)")
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Errors: problems}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch {
	case fe.Field() == "MASTER_KEY" && fe.Tag() == "required":
		return "MASTER_KEY is required (generate with: openssl rand -hex 32)"
	case fe.Field() == "MASTER_KEY":
		return "MASTER_KEY must be 64 hex characters (32 bytes)"
	case fe.Tag() == "required":
		return fe.Field() + " is required"
	case fe.Tag() == "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case fe.Tag() == "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case fe.Tag() == "cronspec":
		return fmt.Sprintf("%s %q is not a valid cron schedule", fe.Field(), fe.Value())
	case fe.Tag() == "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is not a valid %s", fe.Field(), fe.Tag())
	}
}

// IsProduction returns true if all mock services are disabled.
func (c *Config) IsProduction() bool {
	return !c.NoEmail && !c.NoS3
}

// RequireSecureCookies returns true if secure cookies should be required.
// Returns false for localhost development URLs.
func (c *Config) RequireSecureCookies() bool {
	return !strings.HasPrefix(c.BaseURL, "http://localhost") &&
		!strings.HasPrefix(c.BaseURL, "http://127.0.0.1")
}

// DatabasePath is the SQLCipher file inside DataDir.
func (c *Config) DatabasePath() string {
	return strings.TrimRight(c.DataDir, "/") + "/jinwoo.db"
}

// RateLimit returns the limiter settings.
func (c *Config) RateLimit() ratelimit.Config {
	return ratelimit.Config{
		RPS:             c.RateLimitRPS,
		Burst:           c.RateLimitBurst,
		CleanupInterval: c.RateLimitCleanupInterval,
	}
}

// LogOptions returns the logger settings.
func (c *Config) LogOptions() obs.Options {
	return obs.Options{
		Level:      c.LogLevel,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
	}
}

// PrintStartupSummary prints a human-readable summary of the configuration.
func (c *Config) PrintStartupSummary(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "jinwoo server starting...")

	if c.NoEmail {
		fmt.Fprintln(w, "  Email:   Mock (--no-email)")
	} else {
		fmt.Fprintf(w, "  Email:   Resend (real, from: %s)\n", c.ResendFromEmail)
	}

	if c.NoS3 {
		fmt.Fprintln(w, "  Storage: Mock S3 (--no-s3)")
	} else {
		fmt.Fprintf(w, "  Storage: S3 (real, endpoint: %s, bucket: %s)\n", c.AWSEndpointS3, c.BucketName)
	}
	if c.WebDAVURL != "" {
		fmt.Fprintf(w, "  WebDAV:  %s\n", c.WebDAVURL)
	}

	fmt.Fprintf(w, "  Data:    %s\n", c.DatabasePath())
	fmt.Fprintf(w, "  Listen:  %s\n", c.ListenAddr)
	fmt.Fprintf(w, "  Base:    %s\n", c.BaseURL)
	fmt.Fprintln(w, "")
}

// MustLoadConfig loads configuration and panics if validation fails.
func MustLoadConfig(flags Flags) *Config {
	cfg, err := LoadConfig(flags)
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
