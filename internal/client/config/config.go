package config

import "time"

// Config holds runtime settings for portalctl.
//
// Fields:
//   - ServerEndpointAddr: host:port of the SessionAuthority gRPC endpoint.
//   - DataDir: directory (relative to the working directory) holding the
//     session database and downloaded audit exports.
//   - RequestTimeout: deadline applied to every remote call.
type Config struct {
	ServerEndpointAddr string
	DataDir            string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DataDir = "portalctl"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
