package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/manthysbr/connectorseed/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"ab", "****"},
		{"abcd", "****"},
		{"sk-abc123def", "****3def"},
		{"sk-proj-very-long-key-12345", "****2345"},
	}

	for _, tt := range tests {
		result := MaskSecret(tt.input)
		if result != tt.expected {
			t.Errorf("MaskSecret(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestMaskedLeavesOriginal(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Provider.APIKey = "sk-secret-9999"

	masked := Masked(cfg)
	assert.Equal(t, "****9999", masked.Provider.APIKey)
	assert.Equal(t, "sk-secret-9999", cfg.Provider.APIKey)
}

// clearEnv blanks every variable Load reads; blank values are ignored.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "CORS_ORIGINS", "LLM_MODE", "AWS_REGION", "BEDROCK_MODEL_ID",
		"OLLAMA_HOST", "LLM_REMOTE_URL", "LLM_API_KEY", "LLM_MODEL", "S3_DEFAULT_REGION",
		"GRAPH_BASE_URL", "SCRATCH_DIR", "SETTLE_DELAY", "PACING_DELAY", "EMAIL_PACING_DELAY",
		"FILE_PACING_DELAY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, "bedrock", cfg.Provider.Mode)
	assert.Equal(t, 2*time.Second, cfg.Delays.Settle)
	assert.Zero(t, cfg.Delays.FilePacing)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connectorseed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":8080"
provider:
  mode: local
  default_model: llama3
delays:
  settle: 0s
  pacing: 250ms
destinations:
  scratch_dir: /tmp/seed
`), 0o600))

	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("EMAIL_PACING_DELAY", "0")
	t.Setenv("FILE_PACING_DELAY", "75ms")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "local", cfg.Provider.Mode)
	assert.Equal(t, "llama3", cfg.Provider.DefaultModel)
	assert.Equal(t, "us-east-1", cfg.Provider.Region)
	assert.Zero(t, cfg.Delays.Settle)
	assert.Equal(t, 250*time.Millisecond, cfg.Delays.Pacing)
	assert.Zero(t, cfg.Delays.EmailPacing)
	assert.Equal(t, 75*time.Millisecond, cfg.Delays.FilePacing)
	assert.Equal(t, "/tmp/seed", cfg.Destinations.ScratchDir)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing CONFIG_FILE is ignored", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load("")
		assert.NoError(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("SETTLE_DELAY", "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, "SETTLE_DELAY")
	})

	t.Run("negative file pacing", func(t *testing.T) {
		t.Setenv("FILE_PACING_DELAY", "-1s")
		_, err := Load("")
		assert.ErrorContains(t, err, "negative")
	})

	t.Run("remote without key", func(t *testing.T) {
		t.Setenv("LLM_MODE", "remote")
		t.Setenv("LLM_REMOTE_URL", "https://api.example/v1")
		_, err := Load("")
		assert.ErrorContains(t, err, "api_key")
	})

	t.Run("unknown mode", func(t *testing.T) {
		t.Setenv("LLM_MODE", "quantum")
		_, err := Load("")
		assert.ErrorContains(t, err, "quantum")
	})
}
