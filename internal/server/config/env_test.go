package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDotEnv(t *testing.T) {
	t.Helper()
	orig := loadDotEnv
	loadDotEnv = func() error { return nil }
	t.Cleanup(func() { loadDotEnv = orig })
}

func TestParseEnv_OverlaysValues(t *testing.T) {
	noDotEnv(t)

	t.Setenv("TVPORTAL_HTTP_ADDR", ":9090")
	t.Setenv("TVPORTAL_GRPC_ADDR", ":9091")
	t.Setenv("TVPORTAL_DATABASE_DSN", "")
	t.Setenv("TVPORTAL_SECRET_KEY", "env-secret")
	t.Setenv("TVPORTAL_SESSION_TTL", "2h")
	t.Setenv("TVPORTAL_LOGIN_WINDOW", "5m")
	t.Setenv("TVPORTAL_MAX_EMAIL_FAILURES", "3")
	t.Setenv("TVPORTAL_MAX_IP_FAILURES", "4")
	t.Setenv("TVPORTAL_SECURE_COOKIE", "true")
	t.Setenv("TVPORTAL_LOG_FORMAT", "zap")

	c := &Config{}
	c.LoadDefaults()
	parseEnv(c)

	assert.Equal(t, ":9090", c.EndpointAddrHTTP)
	assert.Equal(t, ":9091", c.EndpointAddrGRPC)
	assert.Equal(t, "", c.DatabaseDSN, "explicitly empty DSN selects the in-memory store")
	assert.Equal(t, "env-secret", c.SecretKey)
	assert.Equal(t, 2*time.Hour, c.SessionTTL)
	assert.Equal(t, 5*time.Minute, c.LoginWindow)
	assert.Equal(t, 3, c.MaxEmailFailures)
	assert.Equal(t, 4, c.MaxIPFailures)
	assert.True(t, c.SecureCookie)
	assert.Equal(t, "zap", c.LogFormat)
	assert.Equal(t, "tvportal-audit", c.S3Bucket)
}

func TestParseEnv_BadValuesPanic(t *testing.T) {
	noDotEnv(t)

	cases := map[string]string{
		"TVPORTAL_MAX_IP_FAILURES": "many",
		"TVPORTAL_SESSION_TTL":     "forever",
		"TVPORTAL_SECURE_COOKIE":   "perhaps",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			c := &Config{}
			require.Panics(t, func() { parseEnv(c) })
		})
	}
}
