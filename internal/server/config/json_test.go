package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseJSON_OverlaysOnlyPresentKeys(t *testing.T) {
	path := writeConfigFile(t, `{
		"endpoint_addr_http": "127.0.0.1:7000",
		"database_driver": "sqlite",
		"database_dsn": "file:test.db",
		"access_token_validity_duration": "30m",
		"shutdown_timeout": 2000000000
	}`)

	var got Config
	got.LoadDefaults()
	require.NoError(t, parseJSON(&got, []string{"-c", path}))

	var want Config
	want.LoadDefaults()
	want.EndpointAddrHTTP = "127.0.0.1:7000"
	want.DatabaseDriver = DriverSQLite
	want.DatabaseDSN = "file:test.db"
	want.AccessTokenValidityDuration = 30 * time.Minute
	want.ShutdownTimeout = 2 * time.Second

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSON_NoFlag(t *testing.T) {
	var c Config
	c.LoadDefaults()
	require.NoError(t, parseJSON(&c, []string{"-a", ":1"}))
	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
}

func TestParseJSON_MissingFile(t *testing.T) {
	var c Config
	err := parseJSON(&c, []string{"-config", filepath.Join(t.TempDir(), "nope.json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestParseJSON_Malformed(t *testing.T) {
	path := writeConfigFile(t, `{"secret_key": `)

	var c Config
	err := parseJSON(&c, []string{"-c", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	path := writeConfigFile(t, `{"secret_key": "from-file", "log_level": "debug", "bcrypt_cost": 5}`)
	t.Setenv("GATEKEEPER_BCRYPT_COST", "6")

	c, err := Load([]string{"-c", path, "-b", "7"})
	require.NoError(t, err)

	assert.Equal(t, "from-file", c.SecretKey)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 7, c.BcryptCost)
}
