package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the pvectl CLI.
type Config struct {
	Server    string // hypervisor API base URL, e.g. "https://pve1:8006"
	Username  string // API realm username, e.g. "root@pam"
	Password  string
	VerifyTLS bool // verify the hypervisor's TLS certificate

	RequestTimeout time.Duration // per-request timeout for API calls
	Debug          bool
}

// Load reads configuration from environment variables with sensible
// defaults. Command-line flags are applied on top by the command layer, so
// flags always win over the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Server:    envOrDefault("PVECTL_SERVER", "https://localhost:8006"),
		Username:  envOrDefault("PVECTL_USERNAME", "root@pam"),
		Password:  os.Getenv("PVECTL_PASSWORD"),
		VerifyTLS: os.Getenv("PVECTL_VERIFY_TLS") == "true",
		Debug:     os.Getenv("PVECTL_DEBUG") == "true",

		RequestTimeout: 30 * time.Second,
	}

	if timeoutStr := os.Getenv("PVECTL_TIMEOUT"); timeoutStr != "" {
		secs, err := strconv.Atoi(timeoutStr)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid PVECTL_TIMEOUT %q: must be a positive number of seconds", timeoutStr)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
