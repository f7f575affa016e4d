package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
search:
  provider: duckduckgo
analysis:
  concurrency: 2
timeouts:
  search: 5s
tavily:
  base_url: http://localhost:1234/
`)

	cfg, err := LoadFromFile(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "duckduckgo", cfg.Search.Provider)
	assert.Equal(t, 2, cfg.Analysis.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Search)
	assert.Equal(t, "http://localhost:1234", cfg.Tavily.BaseURL)

	// 未设置的字段保持默认值
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Speech)
	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", cfg.Speech.DefaultVoice)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 3, cfg.Search.AnalysisMaxResults)
}

func TestLoadFromFile_InvalidValuesFallBack(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 700000
search:
  provider: altavista
  max_results: -1
logging:
  level: loud
  format: xml
`)

	cfg, err := LoadFromFile(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig.Server.Port, cfg.Server.Port)
	assert.Equal(t, "tavily", cfg.Search.Provider)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile_ResultLimitsAreCapped(t *testing.T) {
	path := writeConfig(t, `
search:
  max_results: 50
  analysis_max_results: 10
`)

	cfg, err := LoadFromFile(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 3, cfg.Search.AnalysisMaxResults)

	path = writeConfig(t, `
search:
  max_results: 2
  analysis_max_results: 1
`)
	cfg, err = LoadFromFile(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Search.MaxResults)
	assert.Equal(t, 1, cfg.Search.AnalysisMaxResults)
}

func TestLoadFromFile_BrowserProviderNeedsBrowser(t *testing.T) {
	path := writeConfig(t, `
search:
  provider: browser_bing
browser:
  enabled: false
`)

	cfg, err := LoadFromFile(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "tavily", cfg.Search.Provider)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())
	assert.Error(t, err)

	path := writeConfig(t, "server: [not, a, map")
	_, err = LoadFromFile(path, zap.NewNop())
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, "server:\n  port: 9000\n"))
	t.Setenv("PORT", "7000")
	t.Setenv("TAVILY_API_KEY", "tvly-secret")
	t.Setenv("ELEVENLABS_API_KEY", "xi-secret")
	t.Setenv("SEARCH_PROVIDER", "bing")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load(zap.NewNop())

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "tvly-secret", cfg.Tavily.APIKey)
	assert.Equal(t, "xi-secret", cfg.Speech.APIKey)
	assert.Equal(t, "bing", cfg.Search.Provider)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_DefaultsAreNotMutated(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, "search:\n  provider: duckduckgo\n"))

	cfg := Load(zap.NewNop())
	assert.Equal(t, "duckduckgo", cfg.Search.Provider)
	assert.Equal(t, "tavily", DefaultConfig.Search.Provider)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "<unset>", mask(""))
	assert.Equal(t, "<set>", mask("tvly-123"))
}

func TestProxyURL(t *testing.T) {
	cfg := defaults()
	assert.Empty(t, cfg.ProxyURL())

	cfg.Proxy.Enabled = true
	assert.Equal(t, DefaultConfig.Proxy.URL, cfg.ProxyURL())
}
