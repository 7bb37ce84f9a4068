package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/globeandmail/enrich/internal/kinesis"
	"github.com/globeandmail/enrich/internal/sink"
)

// DefaultRegion is used when no region is configured anywhere.
const DefaultRegion = "us-east-1"

// Config holds CLI configuration for the enrich sink.
type Config struct {
	StreamName string
	Region     string
	Endpoint   string

	AccessKeyID     string
	SecretAccessKey string

	ByteLimit      int
	RecordLimit    int
	TimeLimit      time.Duration
	MaxRecordBytes int

	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	MaxAttempts int

	RequestTimeout time.Duration

	// PartitionKeyField selects a tab-separated field (1-based) of each
	// input line as the partition key. Zero picks a random key per record.
	PartitionKeyField int

	MonitoringURL string
	AuthKey       string

	MetricsAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	defaults := sink.DefaultConfig()
	return Config{
		Region:         DefaultRegion,
		ByteLimit:      defaults.ByteLimit,
		RecordLimit:    defaults.RecordLimit,
		TimeLimit:      defaults.TimeLimit,
		MaxRecordBytes: defaults.MaxRecordBytes,
		MinBackoff:     defaults.MinBackoff,
		MaxBackoff:     defaults.MaxBackoff,
		RequestTimeout: kinesis.DefaultRequestTimeout,
		AuthKey:        os.Getenv("ENRICH_AUTH_KEY"),
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream is required")
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.PartitionKeyField < 0 {
		return fmt.Errorf("partition-key-field must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	// The sink validates its own thresholds; surface those errors here so
	// the CLI reports them before any AWS call.
	sc := c.SinkConfig()
	if err := sc.Validate(); err != nil {
		return err
	}
	return nil
}

// SinkConfig maps the CLI configuration onto the sink's.
func (c *Config) SinkConfig() sink.Config {
	return sink.Config{
		StreamName:     c.StreamName,
		ByteLimit:      c.ByteLimit,
		RecordLimit:    c.RecordLimit,
		TimeLimit:      c.TimeLimit,
		MaxRecordBytes: c.MaxRecordBytes,
		MinBackoff:     c.MinBackoff,
		MaxBackoff:     c.MaxBackoff,
		MaxAttempts:    c.MaxAttempts,
	}
}

// ClientConfig maps the CLI configuration onto the Kinesis client's.
func (c *Config) ClientConfig() kinesis.ClientConfig {
	return kinesis.ClientConfig{
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
	}
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
