package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/pkg/config"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, zatca.EnvDev, cfg.ZATCA.Environment)
	assert.False(t, cfg.ZATCA.SubmitEnabled())
	assert.Equal(t, config.SignerModeHash, cfg.ZATCA.SignerMode)
	assert.Equal(t, "1000", cfg.ZATCA.HighValueThreshold.String())
	assert.Equal(t, 50, cfg.Sync.BatchSize)
	assert.Equal(t, 100*time.Millisecond, cfg.Sync.BatchDelay)
	assert.Equal(t, 15*time.Second, cfg.Sync.CallTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Sync.OverdueAfter)
	assert.Equal(t, 10*time.Minute, cfg.Sync.StaleAfter)
	assert.Equal(t, config.BackendFile, cfg.Storage.QueueBackend)
	assert.False(t, cfg.DB.Enabled())
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ZATCA_ENV", "sandbox")
	t.Setenv("SYNC_BATCH_SIZE", "10")
	t.Setenv("SYNC_BATCH_DELAY", "250")
	t.Setenv("SYNC_INTERVAL", "30s")
	t.Setenv("ZATCA_HIGH_VALUE_THRESHOLD", "5000.50")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.ZATCA.SubmitEnabled())
	assert.Equal(t, zatca.APIBaseURLs[zatca.EnvSandbox], cfg.ZATCA.APIBaseURL, "la URL oficial se deriva del ambiente")
	assert.Equal(t, 10, cfg.Sync.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.BatchDelay, "un entero se interpreta en milisegundos")
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, "5000.5", cfg.ZATCA.HighValueThreshold.String())
}

func TestLoad_Invalida(t *testing.T) {
	cases := map[string]map[string]string{
		"ambiente desconocido": {"ZATCA_ENV": "mars"},
		"firmante desconocido": {"ZATCA_SIGNER": "rsa"},
		"postgres sin DB":      {"QUEUE_BACKEND": "postgres"},
		"umbral no numérico":   {"ZATCA_HIGH_VALUE_THRESHOLD": "mil"},
		"archivo sin bucket":   {"ARCHIVE_ENABLED": "true"},
		"lote de tamaño cero":  {"SYNC_BATCH_SIZE": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "zatca", Password: "p@ss:word", DBName: "zatca", SSLMode: "disable"}
	assert.Equal(t, "postgres://zatca:p%40ss%3Aword@db:5432/zatca?sslmode=disable", c.ConnectionString())
	assert.True(t, c.Enabled())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
