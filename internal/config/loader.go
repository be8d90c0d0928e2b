package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a file and applies environment
// variable overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if addr := os.Getenv("DOCUCHAIN_LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
	if backend := os.Getenv("DOCUCHAIN_BACKEND"); backend != "" {
		cfg.Registry.Backend = backend
	}
	if endpoint := os.Getenv("DOCUCHAIN_PEER_ENDPOINT"); endpoint != "" {
		cfg.Fabric.PeerEndpoint = endpoint
	}
	if apiURL := os.Getenv("DOCUCHAIN_IPFS_API_URL"); apiURL != "" {
		cfg.IPFS.APIURL = apiURL
	}
	if level := os.Getenv("DOCUCHAIN_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	// Validate again after env overrides.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration after env overrides: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Registry: RegistryConfig{
			Backend: BackendMemory,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
