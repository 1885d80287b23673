package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected func() *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "127.0.0.1:8080", "-g", "127.0.0.1:9090", "-d", "db", "-s", "secret",
				"-t", "1", "-b", "12", "-l", "debug"},
			expected: func() *Config {
				c := defaults()
				c.EndpointAddrHTTP = "127.0.0.1:8080"
				c.EndpointAddrGRPC = "127.0.0.1:9090"
				c.DatabaseDSN = "db"
				c.SecretKey = "secret"
				c.AccessTokenValidityDuration = time.Minute
				c.BcryptCost = 12
				c.LogLevel = "debug"
				return c
			},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"-c", "conf.json", "-x", "1", "-d", "memory"},
			expected: func() *Config { c := defaults(); c.DatabaseDSN = "memory"; return c },
		},
		{
			name:     "no flags",
			args:     nil,
			expected: defaults,
		},
		{
			name:    "bad int",
			args:    []string{"-b", "lots"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected(), cfg))
		})
	}
}

func TestParseFlags_KeepsSubMinuteTTLWhenUnset(t *testing.T) {
	cfg := defaults()
	cfg.AccessTokenValidityDuration = 90 * time.Second

	require.NoError(t, parseFlags(cfg, []string{"-l", "warn"}))
	assert.Equal(t, 90*time.Second, cfg.AccessTokenValidityDuration)
}
