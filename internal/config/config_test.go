package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "storefront-events", cfg.Kafka.Topic)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)

	rate, err := cfg.TaxRate()
	require.NoError(t, err)
	assert.Equal(t, "0.1", rate.String())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9000
db:
  host: db.internal
email:
  admin_recipients: [ops@example.com, art@example.com]
pricing:
  tax_rate: "0.0825"
`), 0o600))
	t.Setenv("STOREFRONT_DB_HOST", "override.internal")
	t.Setenv("STOREFRONT_OUTBOX_INTERVAL", "250ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "override.internal", cfg.DB.Host)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.Interval)
	assert.Equal(t, []string{"ops@example.com", "art@example.com"}, cfg.Email.AdminRecipients)
	assert.Equal(t, "0.0825", cfg.Pricing.TaxRate)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidTaxRate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_PRICING_TAX_RATE", "1.5")

	_, err := Load("")
	assert.ErrorContains(t, err, "pricing.tax_rate")
}
