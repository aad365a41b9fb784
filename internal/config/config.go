package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Product sources understood by the catalog.
const (
	SourceHTTP  = "http"
	SourceMongo = "mongo"
)

// Config holds all configuration for the web server.
// Values come from built-in defaults, then an optional YAML file (CONFIG_FILE),
// then environment variables; later layers win.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Products ProductConfig `yaml:"products"`
	Proxy    ProxyConfig   `yaml:"proxy"`
	Static   StaticConfig  `yaml:"static"`
	CORS     CORSConfig    `yaml:"cors"`
	LogLevel string        `yaml:"logLevel"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"` // zero disables, proxied streams may be long
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a load balancer that sets them.
	TrustProxyHeaders bool `yaml:"trustProxyHeaders"`
}

// ProductConfig describes where the catalog is read from.
type ProductConfig struct {
	Source        string        `yaml:"source"`
	ServiceURL    string        `yaml:"serviceUrl"`
	Timeout       time.Duration `yaml:"timeout"`
	MongoURI      string        `yaml:"mongoUri"`
	MongoDatabase string        `yaml:"mongoDatabase"`
}

type ProxyConfig struct {
	GatewayURL string        `yaml:"gatewayUrl"`
	Timeout    time.Duration `yaml:"timeout"`
}

type StaticConfig struct {
	Root string `yaml:"root"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3000",
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Products: ProductConfig{
			Source:        SourceHTTP,
			ServiceURL:    "http://localhost:8080",
			Timeout:       5 * time.Second,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "insecurazon",
		},
		Proxy: ProxyConfig{
			GatewayURL: "https://api.insecurazon.local",
			Timeout:    30 * time.Second,
		},
		Static: StaticConfig{
			Root: "../ins-webfe/dist",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		LogLevel: "info",
	}
}

// Load reads configuration from a .env file (if present), an optional YAML
// file and environment variables.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.TrustProxyHeaders = getEnvAsBool("TRUST_PROXY_HEADERS", c.Server.TrustProxyHeaders)

	c.Products.Source = strings.ToLower(getEnv("PRODUCT_SOURCE", c.Products.Source))
	c.Products.ServiceURL = getEnv("PRODUCT_SERVICE_URL", c.Products.ServiceURL)
	c.Products.Timeout = getEnvAsDuration("PRODUCT_SERVICE_TIMEOUT", c.Products.Timeout)
	c.Products.MongoURI = getEnv("MONGODB_URI", c.Products.MongoURI)
	c.Products.MongoDatabase = getEnv("MONGODB_DATABASE", c.Products.MongoDatabase)

	c.Proxy.GatewayURL = getEnv("API_GATEWAY_URL", c.Proxy.GatewayURL)
	c.Proxy.Timeout = getEnvAsDuration("API_PROXY_TIMEOUT", c.Proxy.Timeout)

	c.Static.Root = getEnv("STATIC_FILES_PATH", c.Static.Root)
	c.CORS.AllowedOrigins = getEnvAsSlice("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Products.Source {
	case SourceHTTP:
		if err := validateURL("PRODUCT_SERVICE_URL", c.Products.ServiceURL); err != nil {
			return err
		}
	case SourceMongo:
		if c.Products.MongoURI == "" || c.Products.MongoDatabase == "" {
			return fmt.Errorf("MONGODB_URI and MONGODB_DATABASE are required when PRODUCT_SOURCE=mongo")
		}
	default:
		return fmt.Errorf("invalid product source: %s (must be http or mongo)", c.Products.Source)
	}

	if err := validateURL("API_GATEWAY_URL", c.Proxy.GatewayURL); err != nil {
		return err
	}

	if c.Products.Timeout <= 0 {
		return fmt.Errorf("PRODUCT_SERVICE_TIMEOUT must be positive")
	}
	if c.Proxy.Timeout <= 0 {
		return fmt.Errorf("API_PROXY_TIMEOUT must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", name, raw)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("750ms") or plain seconds ("15").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
