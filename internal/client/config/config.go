// Package config handles configuration for the admin CLI.
package config

import (
	"flag"
	"os"
	"time"

	"github.com/Naimehossein77/gym-nfc/internal/flagx"
)

// Config holds runtime settings for the admin CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - RequestTimeout: per-request timeout for API calls.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8000"
	c.RequestTimeout = 60 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

func parseEnv(config *Config) {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		config.ServerEndpointAddr = v
	}
}

// parseFlags populates selected CLI Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the backend HTTP API
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerEndpointAddr, "a", config.ServerEndpointAddr, "server base URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
