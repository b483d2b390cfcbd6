package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/config"
)

const testKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

func loadConfig(t *testing.T, vars map[string]string) (Config, error) {
	t.Helper()
	env := map[string]string{"TWOFA_ENCRYPTION_KEY": testKey}
	for k, v := range vars {
		env[k] = v
	}
	return config.Load[Config](config.WithEnvironment(env))
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(t, nil)
	require.NoError(t, err)

	assert.Equal(t, "TwoFactor", cfg.Issuer)
	assert.Equal(t, 10*time.Minute, cfg.SetupTTL)
	assert.Equal(t, 1, cfg.Window)
	assert.Equal(t, 5, cfg.MaxFailures)
	assert.Equal(t, time.Minute, cfg.FailureRefill)
	assert.Equal(t, storeMemory, cfg.Store)
	assert.Equal(t, storeMemory, cfg.ThrottleStore)
	assert.Equal(t, 30, cfg.VerifyIPLimit)
	assert.Empty(t, cfg.RemoteQREndpoints)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestConfig_RequiresEncryptionKey(t *testing.T) {
	t.Parallel()

	_, err := config.Load[Config](config.WithEnvironment(map[string]string{}))
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
	}{
		{"unknown store", map[string]string{"TWOFA_STORE": "sqlite"}},
		{"unknown throttle store", map[string]string{"TWOFA_THROTTLE_STORE": "postgres"}},
		{"negative window", map[string]string{"TWOFA_WINDOW": "-1"}},
		{"huge window", map[string]string{"TWOFA_WINDOW": "11"}},
		{"no failures allowed", map[string]string{"TWOFA_MAX_FAILURES": "0"}},
		{"zero setup ttl", map[string]string{"TWOFA_SETUP_TTL": "0s"}},
		{"negative ip limit", map[string]string{"TWOFA_VERIFY_IP_LIMIT": "-5"}},
		{"bad remote endpoint", map[string]string{"TWOFA_REMOTE_QR_ENDPOINTS": "https://qr.example.com/?d={data}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := loadConfig(t, tt.vars)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.ErrorIs(t, err, errConfig)
		})
	}
}

func TestRemoteRenderers(t *testing.T) {
	t.Parallel()

	rs, err := remoteRenderers([]string{
		"primary=https://qr.example.com/render?data={data}",
		" ",
		"backup=https://backup.example.com/{data}",
	})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "primary", rs[0].Name())
	assert.Equal(t, "backup", rs[1].Name())

	_, err = remoteRenderers([]string{"=https://qr.example.com/?d={data}"})
	assert.Error(t, err)

	_, err = remoteRenderers([]string{"nodata=https://qr.example.com/"})
	assert.Error(t, err)
}
