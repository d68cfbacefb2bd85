package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tvportal/internal/flagx"
	"github.com/dmitrijs2005/tvportal/internal/timex"
)

// ConfigFileEnv names the environment variable consulted when no -c/-config
// flag is given.
const ConfigFileEnv = "TVPORTAL_CONFIG"

// JsonConfig is the on-disk shape of the config file. Durations accept
// both "15m" strings and integer nanoseconds. Pointer fields distinguish
// "absent" from an explicit zero.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      *string        `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	SessionTTL       timex.Duration `json:"session_ttl"`
	LoginWindow      timex.Duration `json:"login_window"`
	MaxEmailFailures int            `json:"max_email_failures"`
	MaxIPFailures    int            `json:"max_ip_failures"`
	BcryptCost       int            `json:"bcrypt_cost"`
	ResetTokenTTL    timex.Duration `json:"reset_token_ttl"`
	PublicBaseURL    string         `json:"public_base_url"`
	SecureCookie     *bool          `json:"secure_cookie"`
	LogFormat        string         `json:"log_format"`
	LogLevel         string         `json:"log_level"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
}

// parseJson overlays values from the JSON config file onto config. The
// file is taken from -c/-config or TVPORTAL_CONFIG; when neither is set
// nothing happens. Unreadable or invalid files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(ConfigFileEnv)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.LoginWindow.Duration > 0 {
		config.LoginWindow = c.LoginWindow.Duration
	}
	if c.MaxEmailFailures > 0 {
		config.MaxEmailFailures = c.MaxEmailFailures
	}
	if c.MaxIPFailures > 0 {
		config.MaxIPFailures = c.MaxIPFailures
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.ResetTokenTTL.Duration > 0 {
		config.ResetTokenTTL = c.ResetTokenTTL.Duration
	}
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	if c.SecureCookie != nil {
		config.SecureCookie = *c.SecureCookie
	}
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
