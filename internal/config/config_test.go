package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jinwoo-notes/jinwoo/internal/ratelimit"
)

func validTestConfig() Config {
	return Config{
		ListenAddr:               ":8080",
		BaseURL:                  "http://localhost:8080",
		DataDir:                  "./data",
		MasterKey:                strings.Repeat("a", 64),
		SessionDuration:          24 * time.Hour,
		SessionCleanupSchedule:   "@every 1h",
		RateLimitRPS:             ratelimit.DefaultConfig.RPS,
		RateLimitBurst:           ratelimit.DefaultConfig.Burst,
		RateLimitCleanupInterval: ratelimit.DefaultConfig.CleanupInterval,
		LogLevel:                 "info",
		ResendFromEmail:          "noreply@example.com",
		ExportDir:                "./exports",
		NoEmail:                  true,
		NoS3:                     true,
	}
}

func TestValidate_TestModeMinimalConfigPasses(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid test-mode config, got error: %v", err)
	}
}

func TestValidate_RequiresServiceSecretsWhenNotMocked(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.NoEmail = false
	cfg.NoS3 = false

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error when real services are enabled without secrets")
	}
	msg := err.Error()
	for _, expected := range []string{
		"RESEND_API_KEY",
		"AWS_ENDPOINT_URL_S3",
		"BUCKET_NAME",
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
	} {
		if !strings.Contains(msg, expected) {
			t.Fatalf("expected validation error to mention %q, got: %v", expected, err)
		}
	}
}

func testValidate_RejectsInvalidMasterKey(t *rapid.T) {
	cfg := validTestConfig()
	cfg.MasterKey = rapid.OneOf(
		rapid.StringMatching(`[0-9a-f]{1,63}`),
		rapid.StringMatching(`[0-9a-f]{65,80}`),
		rapid.StringMatching(`[g-z]{64}`),
	).Draw(t, "master_key")

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error for master key %q", cfg.MasterKey)
	}
	if !strings.Contains(err.Error(), "MASTER_KEY must be 64 hex characters") {
		t.Fatalf("expected key-length error, got: %v", err)
	}
}

func TestValidate_RejectsInvalidMasterKey(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidate_RejectsInvalidMasterKey)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.MasterKey = ""
	cfg.SessionCleanupSchedule = "every now and then"
	cfg.RateLimitRPS = 0
	cfg.RateLimitBurst = -1
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 5)
	msg := err.Error()
	for _, expected := range []string{
		"MASTER_KEY is required",
		"SESSION_CLEANUP_SCHEDULE",
		"RATE_LIMIT_RPS must be greater than 0",
		"RATE_LIMIT_BURST must be greater than 0",
		"LOG_LEVEL must be one of",
	} {
		assert.Contains(t, msg, expected)
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MASTER_KEY", strings.Repeat("b", 64))
	t.Setenv("SESSION_DURATION", "2h")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("WEBDAV_URL", "https://dav.example.com/remote.php")

	cfg, err := LoadConfig(Flags{Test: true, Addr: ":9999"})
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:9999", cfg.BaseURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 2.5, cfg.RateLimit().RPS)
	assert.Equal(t, ratelimit.DefaultConfig.Burst, cfg.RateLimit().Burst)
	assert.Equal(t, "@every 1h", cfg.SessionCleanupSchedule)
	assert.Equal(t, "https://dav.example.com/remote.php", cfg.WebDAVURL)
	assert.Equal(t, filepath.Join("data", "jinwoo.db"), filepath.Clean(cfg.DatabasePath()))
	assert.True(t, cfg.NoEmail)
	assert.True(t, cfg.NoS3)
	assert.False(t, cfg.RequireSecureCookies())
}

func TestLoadConfig_DotEnvAndConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// godotenv never overrides existing variables and sets them process-wide,
	// so start from unset and let t.Setenv restore the originals.
	for _, key := range []string{"MASTER_KEY", "BASE_URL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("MASTER_KEY="+strings.Repeat("c", 64)+"\nBASE_URL=https://notes.example.com/\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jinwoo.yaml"),
		[]byte("export_dir: /srv/exports\nlog_level: DEBUG\n"), 0o600))

	cfg, err := LoadConfig(Flags{NoEmail: true, NoS3: true})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("c", 64), cfg.MasterKey)
	assert.Equal(t, "https://notes.example.com", cfg.BaseURL)
	assert.Equal(t, "/srv/exports", cfg.ExportDir)
	assert.Equal(t, "debug", cfg.LogOptions().Level)
	assert.True(t, cfg.RequireSecureCookies())
}

func TestLoadConfig_MissingExplicitFiles(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MASTER_KEY", strings.Repeat("d", 64))

	_, err := LoadConfig(Flags{Test: true, EnvFile: "missing.env"})
	require.Error(t, err)

	_, err = LoadConfig(Flags{Test: true, ConfigFile: "missing.yaml"})
	require.Error(t, err)
}

func TestLoadConfig_MissingMasterKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MASTER_KEY", "")

	_, err := LoadConfig(Flags{Test: true})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "MASTER_KEY is required")
}
