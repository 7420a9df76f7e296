package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetVerbose())
	assert.False(t, cfg.GetNoColor())
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.True(t, cfg.IsDefault())
}

func TestGetters_NilPointers(t *testing.T) {
	cfg := &Config{}

	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetVerbose())
}

func TestFindAndLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "baseUrl": "https://api.example.com",
  "headers": {"Accept": "application/json"},
  "timeout": 5000,
  "validateSSL": false,
  "rateLimit": 2.5
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fetchkit.json"), []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, map[string]string{"Accept": "application/json"}, cfg.Headers)
	assert.Equal(t, 5000, cfg.Timeout)
	assert.False(t, cfg.GetValidateSSL())
	assert.True(t, cfg.GetFollowRedirects(), "unset fields keep defaults")
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.Equal(t, 2.5, cfg.RateLimit)
}

func TestFindAndLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	content := `baseUrl: https://yaml.example.com
followRedirects: false
logLevel: debug
userAgent: custom/1.0
headers:
  X-Team: core
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fetchkit.yaml"), []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, "https://yaml.example.com", cfg.BaseURL)
	assert.False(t, cfg.GetFollowRedirects())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "custom/1.0", cfg.UserAgent)
	assert.Equal(t, "core", cfg.Headers["X-Team"])
}

func TestFindAndLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fetchkit.json"), []byte(`{"baseUrl":"json"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fetchkit.yaml"), []byte("baseUrl: yaml\n"), 0644))

	cfg, err := FindAndLoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, "json", cfg.BaseURL)
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	negative := filepath.Join(dir, "neg.yml")
	require.NoError(t, os.WriteFile(negative, []byte("timeout: -1\n"), 0644))
	_, err = LoadConfig(negative)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1", "B": "2"}

	merged := base.Merge(&Config{
		BaseURL:     "https://override",
		Timeout:     100,
		ValidateSSL: BoolPtr(false),
		Headers:     map[string]string{"B": "3"},
		RateLimit:   4,
	})

	assert.Equal(t, "https://override", merged.BaseURL)
	assert.Equal(t, 100, merged.Timeout)
	assert.False(t, merged.GetValidateSSL())
	assert.True(t, merged.GetFollowRedirects())
	assert.Equal(t, map[string]string{"A": "1", "B": "3"}, merged.Headers)
	assert.Equal(t, 4.0, merged.RateLimit)

	assert.Equal(t, "2", base.Headers["B"], "receiver must not be mutated")
	assert.True(t, base.GetValidateSSL())

	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.BaseURL = "https://saved"
	cfg.Headers = map[string]string{"X": "y"}

	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, cfg.SaveConfig(path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}
