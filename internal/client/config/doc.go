// Package config loads runtime configuration for portalctl.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the SessionAuthority gRPC endpoint
//	-d string   data directory for the local session file and exports
//	-t int      per-call timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "data_dir": "portalctl",
//	  "request_timeout": "10s"
//	}
package config
