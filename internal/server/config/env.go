package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for tests.
var loadDotEnv = func() error { return godotenv.Load() }

// parseEnv overlays TVPORTAL_* environment variables onto config. A .env
// file in the working directory is loaded first if present; variables
// already set in the process environment are not overridden by it.
//
// Malformed numeric, duration or boolean values panic, like the other
// config layers.
func parseEnv(config *Config) {
	_ = loadDotEnv()

	envString("TVPORTAL_HTTP_ADDR", &config.EndpointAddrHTTP)
	envString("TVPORTAL_GRPC_ADDR", &config.EndpointAddrGRPC)
	if v, ok := os.LookupEnv("TVPORTAL_DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	envString("TVPORTAL_SECRET_KEY", &config.SecretKey)
	envDuration("TVPORTAL_SESSION_TTL", &config.SessionTTL)
	envDuration("TVPORTAL_LOGIN_WINDOW", &config.LoginWindow)
	envInt("TVPORTAL_MAX_EMAIL_FAILURES", &config.MaxEmailFailures)
	envInt("TVPORTAL_MAX_IP_FAILURES", &config.MaxIPFailures)
	envInt("TVPORTAL_BCRYPT_COST", &config.BcryptCost)
	envDuration("TVPORTAL_RESET_TOKEN_TTL", &config.ResetTokenTTL)
	envString("TVPORTAL_PUBLIC_BASE_URL", &config.PublicBaseURL)
	envBool("TVPORTAL_SECURE_COOKIE", &config.SecureCookie)
	envString("TVPORTAL_LOG_FORMAT", &config.LogFormat)
	envString("TVPORTAL_LOG_LEVEL", &config.LogLevel)
	envString("TVPORTAL_S3_ROOT_USER", &config.S3RootUser)
	envString("TVPORTAL_S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("TVPORTAL_S3_BUCKET", &config.S3Bucket)
	envString("TVPORTAL_S3_REGION", &config.S3Region)
	envString("TVPORTAL_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(name string, dst *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func envBool(name string, dst *bool) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(err)
	}
	*dst = b
}
