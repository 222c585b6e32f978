package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYaml = `
quote_currency: "EUR"
min_quote_volume: 500
demo_balance: 42
`

// приоритет: окружение > yaml > дефолты
func TestEnvOverridesYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "configs", "values_test.yaml"), []byte(testYaml), 0o644))
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	t.Setenv("CONFIG_FILE", "values_test.yaml")
	t.Setenv("MIN_QUOTE_VOLUME", "250000")
	t.Setenv("SCAN_PERIOD", "30s")

	cfg, err := NewConfig()
	require.NoError(t, err)

	// окружение перебивает значение из yaml
	assert.Equal(t, 250000.0, cfg.MinQuoteVolume)
	// yaml перебивает дефолт
	assert.Equal(t, "EUR", cfg.QuoteCurrency)
	assert.Equal(t, 42.0, cfg.DemoBalance)
	// нигде не задано — дефолт
	assert.Equal(t, 10, cfg.MaxPairs)
	assert.Equal(t, "1h", cfg.Timeframe)

	assert.Equal(t, "30s", cfg.ScanPeriod.String())
}
