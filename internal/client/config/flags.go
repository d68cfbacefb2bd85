package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Only -a, -d and -t are looked at; os.Args is filtered with
// flagx.FilterArgs so the JSON loader's -c flag does not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the gRPC server")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
