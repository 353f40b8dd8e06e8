package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "admitbot", cfg.App.Name)
	assert.Equal(t, "vi", cfg.App.DefaultLanguage)
	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Equal(t, 150, cfg.Chunking.Overlap)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 3, cfg.Retrieval.ContextChunks)
	assert.Contains(t, cfg.Router.Keywords, "học phí")
	assert.Contains(t, cfg.Router.Keywords, "tuition")
	assert.NotEmpty(t, cfg.Router.FallbackKeywords)
	assert.Empty(t, cfg.Ollama.Model)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[app]
port = 9090
default_language = "en"

[chunking]
size = 400

[router]
keywords = ["visa", "exchange"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.HTTPAddr())
	assert.Equal(t, "en", cfg.App.DefaultLanguage)
	assert.Equal(t, 400, cfg.Chunking.Size)
	assert.Equal(t, []string{"visa", "exchange"}, cfg.Router.Keywords)
	// Untouched sections keep their defaults.
	assert.Equal(t, 150, cfg.Chunking.Overlap)
}

func TestEnvOverridesFileAndDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("APP_PORT", "7070")
	t.Setenv("MYSQL_PASSWORD", "secret")
	t.Setenv("OLLAMA_MODEL", "qwen2.5:3b")
	t.Setenv("OLLAMA_PRIMARY", "true")
	t.Setenv("ROUTER_KEYWORDS", " visa , exchange ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.App.Port)
	assert.Equal(t, "qwen2.5:3b", cfg.Ollama.Model)
	assert.True(t, cfg.Ollama.Primary)
	assert.Equal(t, []string{"visa", "exchange"}, cfg.Router.Keywords)
	assert.Contains(t, cfg.MySQLDSN(), "root:secret@tcp(127.0.0.1:3306)/admitbot")
}

func TestEnvBadValuesKeepDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("APP_PORT", "not-a-number")
	t.Setenv("OLLAMA_PRIMARY", "definitely")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.False(t, cfg.Ollama.Primary)
}

func TestMySQLDSNShape(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t,
		"root:@tcp(127.0.0.1:3306)/admitbot?parseTime=true&loc=Local&charset=utf8mb4",
		cfg.MySQLDSN(),
	)
}
