package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	CustomerID int64  `envconfig:"CFGTEST_CUSTOMER_ID" default:"501"`
	Model      string `envconfig:"CFGTEST_MODEL" default:"gpt-4o-mini"`
	TopK       int    `envconfig:"CFGTEST_TOP_K" default:"3"`
}

func unsetOnCleanup(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load[sampleConfig]("", "")
	require.NoError(t, err)
	assert.Equal(t, int64(501), cfg.CustomerID)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 3, cfg.TopK)
}

func TestLoadEnvFile(t *testing.T) {
	unsetOnCleanup(t, "CFGTEST_CUSTOMER_ID", "CFGTEST_MODEL")
	path := filepath.Join(t.TempDir(), "bot.env")
	require.NoError(t, os.WriteFile(path, []byte("CFGTEST_CUSTOMER_ID=777\nCFGTEST_MODEL=gemini-2.5-flash\n"), 0o600))

	cfg, err := Load[sampleConfig]("", path)
	require.NoError(t, err)
	assert.Equal(t, int64(777), cfg.CustomerID)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
}

func TestLoadYAMLFlattensNestedKeys(t *testing.T) {
	unsetOnCleanup(t, "CFGTEST_TOP_K")
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cfgtest:\n  top_k: 5\n"), 0o600))

	cfg, err := Load[sampleConfig]("", path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TopK)
}

func TestProcessEnvironmentWinsOverFile(t *testing.T) {
	t.Setenv("CFGTEST_MODEL", "from-env")
	path := filepath.Join(t.TempDir(), "bot.env")
	require.NoError(t, os.WriteFile(path, []byte("CFGTEST_MODEL=from-file\n"), 0o600))

	cfg, err := Load[sampleConfig]("", path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Model)
}

func TestDefaultDotEnvIsLoaded(t *testing.T) {
	unsetOnCleanup(t, "CFGTEST_CUSTOMER_ID")
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CFGTEST_CUSTOMER_ID=502\n"), 0o600))

	cfg, err := Load[sampleConfig]("", "")
	require.NoError(t, err)
	assert.Equal(t, int64(502), cfg.CustomerID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load[sampleConfig]("", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
