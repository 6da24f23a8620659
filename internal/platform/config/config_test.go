package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, LedgerMemory, cfg.Ledger)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.True(t, cfg.EmbeddedWorkers)
	require.Equal(t, 5*time.Minute, cfg.SignatureMaxSkew)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tribunal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
serviceName: tribunal-test
httpPort: "9090"
ledger: sqlite
sqlitePath: /tmp/tribunal-test.db
workerPollInterval: 5s
`), 0o600))

	t.Setenv("TRIBUNAL_HTTP_PORT", "9191")
	t.Setenv("TRIBUNAL_TRUST_CALLER_HEADER", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tribunal-test", cfg.ServiceName)
	require.Equal(t, "9191", cfg.HTTPPort)
	require.Equal(t, LedgerSQLite, cfg.Ledger)
	require.Equal(t, 5*time.Second, cfg.WorkerPollInterval)
	require.True(t, cfg.TrustCallerHeader)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown ledger", mutate: func(c *Config) { c.Ledger = "mongo" }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Ledger = LedgerPostgres }},
		{name: "zero poll interval", mutate: func(c *Config) { c.WorkerPollInterval = 0 }},
		{name: "zero batch size", mutate: func(c *Config) { c.WorkerBatchSize = 0 }},
		{name: "zero skew", mutate: func(c *Config) { c.SignatureMaxSkew = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	cfg := Defaults()
	cfg.Ledger = LedgerPostgres
	cfg.PostgresDSN = "postgres://localhost/tribunal"
	require.NoError(t, cfg.Validate())
}
