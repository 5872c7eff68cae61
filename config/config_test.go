package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, yaml string) (*Config, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CONFIG_PATH", path)

	return LoadConfig()
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadFrom(t, `
http:
  addr: ":9090"
ws:
  pingInterval: "20s"
broker:
  heartbeatThreshold: "2m"
auth:
  insecure: true
logging:
  env: "prod"
  backend: "zap"
`)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 20*time.Second, cfg.PingInterval())
	assert.Equal(t, 2*time.Minute, cfg.HeartbeatThreshold())
	assert.Equal(t, "prod", cfg.Logging.Env)
	assert.Equal(t, "zap", cfg.Logging.Backend)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadFrom(t, `
http:
  addr: ":8082"
auth:
  insecure: true
`)
	require.NoError(t, err)

	assert.Equal(t, int64(1<<20), cfg.WS.ReadLimit)
	assert.Equal(t, 15*time.Second, cfg.PingInterval())
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout())
	assert.Equal(t, 90*time.Second, cfg.HeartbeatThreshold())
	assert.Equal(t, 30*time.Second, cfg.SweepInterval())
	assert.Equal(t, 5*time.Second, cfg.SendTimeout())
	assert.Equal(t, 30*time.Second, cfg.ClockSkew())
	assert.Equal(t, "push-service", cfg.Logging.Service)
	assert.Equal(t, "dev", cfg.Logging.Env)
	assert.Equal(t, "std", cfg.Logging.Backend)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing addr", yaml: "auth:\n  insecure: true\n"},
		{name: "no auth configured", yaml: "http:\n  addr: \":8082\"\n"},
		{name: "bad yaml", yaml: "http: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFrom(t, tt.yaml)
			assert.Error(t, err)
		})
	}
}

func TestParseDurationOr(t *testing.T) {
	assert.Equal(t, time.Minute, parseDurationOr(time.Second, "1m"))
	assert.Equal(t, time.Second, parseDurationOr(time.Second, ""))
	assert.Equal(t, time.Second, parseDurationOr(time.Second, "nonsense"))
	assert.Equal(t, time.Second, parseDurationOr(time.Second, "-5s"))
}
