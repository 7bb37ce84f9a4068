package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	StreamName        string `toml:"stream"`
	Region            string `toml:"region"`
	Endpoint          string `toml:"endpoint"`
	AccessKeyID       string `toml:"access_key_id"`
	SecretAccessKey   string `toml:"secret_access_key"`
	ByteLimit         int    `toml:"byte_limit"`
	RecordLimit       int    `toml:"record_limit"`
	TimeLimit         string `toml:"time_limit"`
	MaxRecordBytes    int    `toml:"max_record_bytes"`
	MinBackoff        string `toml:"min_backoff"`
	MaxBackoff        string `toml:"max_backoff"`
	MaxAttempts       int    `toml:"max_attempts"`
	RequestTimeout    string `toml:"request_timeout"`
	PartitionKeyField int    `toml:"partition_key_field"`
	MonitoringURL     string `toml:"monitoring_url"`
	AuthKey           string `toml:"auth_key"`
	MetricsAddr       string `toml:"metrics_addr"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.enrich/config.toml if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".enrich", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("stream", fc.StreamName, &cfg.StreamName)
	s.setString("region", fc.Region, &cfg.Region)
	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("access-key-id", fc.AccessKeyID, &cfg.AccessKeyID)
	s.setString("secret-access-key", fc.SecretAccessKey, &cfg.SecretAccessKey)
	s.setString("monitoring-url", fc.MonitoringURL, &cfg.MonitoringURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)

	if err := s.setDuration("time-limit", fc.TimeLimit, &cfg.TimeLimit); err != nil {
		return err
	}
	if err := s.setDuration("min-backoff", fc.MinBackoff, &cfg.MinBackoff); err != nil {
		return err
	}
	if err := s.setDuration("max-backoff", fc.MaxBackoff, &cfg.MaxBackoff); err != nil {
		return err
	}
	if err := s.setDuration("request-timeout", fc.RequestTimeout, &cfg.RequestTimeout); err != nil {
		return err
	}

	s.setInt("byte-limit", fc.ByteLimit, &cfg.ByteLimit)
	s.setInt("record-limit", fc.RecordLimit, &cfg.RecordLimit)
	s.setInt("max-record-bytes", fc.MaxRecordBytes, &cfg.MaxRecordBytes)
	s.setInt("max-attempts", fc.MaxAttempts, &cfg.MaxAttempts)
	s.setInt("partition-key-field", fc.PartitionKeyField, &cfg.PartitionKeyField)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
