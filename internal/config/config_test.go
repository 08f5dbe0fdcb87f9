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
	t.Setenv("API_BASE_URL", "")
	t.Setenv("STOREFRONT_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:5001", cfg.APIBaseURL)
	assert.Equal(t, cfg.APIBaseURL, cfg.AssetBaseURL)
	assert.Equal(t, 8*time.Second, cfg.PollInterval)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "999", cfg.FreeShippingThreshold.String())
	assert.Equal(t, "49", cfg.ShippingFee.String())
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://shop.example.com/")
	t.Setenv("ASSET_BASE_URL", "https://cdn.example.com")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("TRACKING_POLL_INTERVAL", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", cfg.APIBaseURL)
	assert.Equal(t, "https://cdn.example.com", cfg.AssetBaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("SHIPPING_FEE", "forty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_TIMEOUT")
	assert.Contains(t, err.Error(), "SHIPPING_FEE")
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "etcd")
	_, err := Load()
	assert.ErrorContains(t, err, "etcd")
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port: "9090"
store_backend: sqlite
sqlite_path: /var/lib/storefront.db
tracking_poll_interval: 15s
free_shipping_threshold: "1499.50"
kafka_brokers: [broker:9092]
`), 0o600))
	t.Setenv("STOREFRONT_CONFIG", path)
	t.Setenv("HTTP_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "/var/lib/storefront.db", cfg.SQLitePath)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, "1499.5", cfg.FreeShippingThreshold.String())
	assert.Equal(t, []string{"broker:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "49", cfg.ShippingFee.String())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("STOREFRONT_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.ErrorContains(t, err, "read config file")
}

func TestLoad_SimulatedPaymentsNeedSecret(t *testing.T) {
	t.Setenv("STOREFRONT_CONFIG", "")
	t.Setenv("SIMULATE_PAYMENTS", "true")
	t.Setenv("PAYMENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("PAYMENT_SECRET", "dev-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.SimulatePayments)
}
