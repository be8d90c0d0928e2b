// Package config loads and validates the server configuration from a YAML
// file, with environment variable overrides for deployment.
package config

import (
	"fmt"
	"time"
)

// Backend selects where certificate records live.
const (
	BackendMemory = "memory"
	BackendFabric = "fabric"
)

// Config holds all configuration for the docuchain server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Registry RegistryConfig `yaml:"registry"`
	Fabric   FabricConfig   `yaml:"fabric"`
	IPFS     IPFSConfig     `yaml:"ipfs"`
	Issuers  []IssuerConfig `yaml:"issuers"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
	MaxUploadMB  int64  `yaml:"max_upload_mb"`
}

// RegistryConfig selects and tunes the registry backend.
type RegistryConfig struct {
	Backend        string `yaml:"backend"`
	RequireLocator bool   `yaml:"require_locator"`
}

// FabricConfig locates the gateway peer and MSP credentials. Only used
// when registry.backend is "fabric".
type FabricConfig struct {
	MSPID        string `yaml:"msp_id"`
	CertPath     string `yaml:"cert_path"`
	KeyDir       string `yaml:"key_dir"`
	TLSCertPath  string `yaml:"tls_cert_path"`
	PeerEndpoint string `yaml:"peer_endpoint"`
	GatewayPeer  string `yaml:"gateway_peer"`
	Channel      string `yaml:"channel"`
	Chaincode    string `yaml:"chaincode"`
}

// IPFSConfig points at the pinning node. When disabled, issued records
// carry an empty storage locator.
type IPFSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIURL     string `yaml:"api_url"`
	GatewayURL string `yaml:"gateway_url"`
	Timeout    string `yaml:"timeout"`
}

// IssuerConfig maps a bearer token to an issuer identity. Tokens never
// appear in responses or logs.
type IssuerConfig struct {
	Name  string `yaml:"name"`
	Token string `yaml:"token"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative")
	}
	for _, field := range []struct{ name, value string }{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"ipfs.timeout", c.IPFS.Timeout},
	} {
		if field.value == "" {
			continue
		}
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("%s is invalid: %w", field.name, err)
		}
	}

	switch c.Registry.Backend {
	case BackendMemory:
	case BackendFabric:
		if err := c.Fabric.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("registry.backend must be %q or %q", BackendMemory, BackendFabric)
	}

	if c.IPFS.Enabled && c.IPFS.APIURL == "" {
		return fmt.Errorf("ipfs.api_url is required when ipfs is enabled")
	}

	seen := make(map[string]bool)
	for i, issuer := range c.Issuers {
		if issuer.Name == "" {
			return fmt.Errorf("issuers[%d].name is required", i)
		}
		if issuer.Token == "" {
			return fmt.Errorf("issuers[%d].token is required", i)
		}
		if seen[issuer.Token] {
			return fmt.Errorf("issuers[%d].token is not unique", i)
		}
		seen[issuer.Token] = true
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text'")
	}

	return nil
}

func (f *FabricConfig) validate() error {
	required := []struct{ name, value string }{
		{"fabric.msp_id", f.MSPID},
		{"fabric.cert_path", f.CertPath},
		{"fabric.key_dir", f.KeyDir},
		{"fabric.tls_cert_path", f.TLSCertPath},
		{"fabric.peer_endpoint", f.PeerEndpoint},
		{"fabric.gateway_peer", f.GatewayPeer},
		{"fabric.channel", f.Channel},
		{"fabric.chaincode", f.Chaincode},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%s is required for the fabric backend", field.name)
		}
	}
	return nil
}

// ReadTimeoutDuration returns the HTTP read timeout, defaulting to 15s.
func (c *Config) ReadTimeoutDuration() time.Duration {
	return durationOr(c.Server.ReadTimeout, 15*time.Second)
}

// WriteTimeoutDuration returns the HTTP write timeout, defaulting to 30s.
func (c *Config) WriteTimeoutDuration() time.Duration {
	return durationOr(c.Server.WriteTimeout, 30*time.Second)
}

// IPFSTimeoutDuration returns the pinning timeout, defaulting to 30s.
func (c *Config) IPFSTimeoutDuration() time.Duration {
	return durationOr(c.IPFS.Timeout, 30*time.Second)
}

// MaxUploadBytes returns the upload cap, defaulting to 16 MiB.
func (c *Config) MaxUploadBytes() int64 {
	if c.Server.MaxUploadMB == 0 {
		return 16 << 20
	}
	return c.Server.MaxUploadMB << 20
}

func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
