// Package core provides configuration management for Quantum Brain
package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Metric sources the observer can read from.
const (
	SourceSimulated  = "simulated"
	SourcePrometheus = "prometheus"
)

// Config holds all Quantum Brain configuration with validation
type Config struct {
	App struct {
		Name     string `yaml:"name"`
		Version  string `yaml:"version"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		Enabled        bool   `yaml:"enabled"`
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		User           string `yaml:"user"`
		Password       string `yaml:"password"`
		DBName         string `yaml:"dbname"`
		MaxConnections int    `yaml:"max_connections"`
	} `yaml:"database"`

	Prometheus struct {
		URL string `yaml:"url"`
		// Queries maps each monitored metric to an instant PromQL expression.
		Queries map[string]string `yaml:"queries"`
	} `yaml:"prometheus"`

	Kubernetes struct {
		Enabled    bool   `yaml:"enabled"`
		Namespace  string `yaml:"namespace"`
		Kubeconfig string `yaml:"kubeconfig"`
	} `yaml:"kubernetes"`

	Observer struct {
		Enabled         bool   `yaml:"enabled"`
		Source          string `yaml:"source"`
		Interval        string `yaml:"interval"`
		RetentionPeriod string `yaml:"retention_period"`
		ServiceName     string `yaml:"service_name"`
	} `yaml:"observer"`

	Remediation struct {
		DryRun bool `yaml:"dry_run"`
	} `yaml:"remediation"`

	WebSocket struct {
		BufferSize     int      `yaml:"buffer_size"`
		WriteTimeout   string   `yaml:"write_timeout"`
		PingInterval   string   `yaml:"ping_interval"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"websocket"`
}

// LoadConfig reads and validates configuration from YAML file
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config.ApplyEnvOverrides()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "quantum-brain"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "30s"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = 10
	}
	if c.Kubernetes.Namespace == "" {
		c.Kubernetes.Namespace = "default"
	}
	if c.Observer.Source == "" {
		c.Observer.Source = SourceSimulated
	}
	if c.Observer.Interval == "" {
		c.Observer.Interval = "5s"
	}
	if c.Observer.ServiceName == "" {
		c.Observer.ServiceName = c.App.Name
	}
}

// Validate checks if configuration values are valid
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name cannot be empty")
	}
	if c.App.Version == "" {
		return fmt.Errorf("app.version cannot be empty")
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of: debug, info, warn, error")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host cannot be empty")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("database.port must be between 1 and 65535")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user cannot be empty")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database.dbname cannot be empty")
		}
		if c.Database.MaxConnections <= 0 {
			return fmt.Errorf("database.max_connections must be positive")
		}
	}

	switch c.Observer.Source {
	case SourceSimulated:
	case SourcePrometheus:
		if c.Prometheus.URL == "" {
			return fmt.Errorf("prometheus.url cannot be empty")
		}
		if !strings.HasPrefix(c.Prometheus.URL, "http://") && !strings.HasPrefix(c.Prometheus.URL, "https://") {
			return fmt.Errorf("prometheus.url must start with http:// or https://")
		}
		if len(c.Prometheus.Queries) == 0 {
			return fmt.Errorf("prometheus.queries cannot be empty")
		}
	default:
		return fmt.Errorf("observer.source must be one of: %s, %s", SourceSimulated, SourcePrometheus)
	}

	durations := []struct {
		key   string
		value string
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"observer.interval", c.Observer.Interval},
		{"observer.retention_period", c.Observer.RetentionPeriod},
		{"websocket.write_timeout", c.WebSocket.WriteTimeout},
		{"websocket.ping_interval", c.WebSocket.PingInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		if parsed < 0 {
			return fmt.Errorf("%s must be non-negative", d.key)
		}
	}

	if c.WebSocket.BufferSize < 0 {
		return fmt.Errorf("websocket.buffer_size must be non-negative")
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides
func (c *Config) ApplyEnvOverrides() {
	if host := os.Getenv("QB_DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if user := os.Getenv("QB_DB_USER"); user != "" {
		c.Database.User = user
	}
	if password := os.Getenv("QB_DB_PASSWORD"); password != "" {
		c.Database.Password = password
	}
	if dbname := os.Getenv("QB_DB_NAME"); dbname != "" {
		c.Database.DBName = dbname
	}
	if url := os.Getenv("QB_PROMETHEUS_URL"); url != "" {
		c.Prometheus.URL = url
	}
	if logLevel := os.Getenv("QB_LOG_LEVEL"); logLevel != "" {
		c.App.LogLevel = logLevel
	}
	if addr := os.Getenv("QB_SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// GetDatabaseURL returns PostgreSQL connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable&pool_max_conns=%d",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		c.Database.MaxConnections,
	)
}

// Duration parses a validated duration field, falling back to def when unset.
func Duration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}
