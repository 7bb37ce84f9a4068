package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (ENRICH_*).
// It respects flags that have been explicitly set (changed map).
// Returns an error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("stream", os.Getenv("ENRICH_STREAM"), &cfg.StreamName)
	s.setString("region", os.Getenv("ENRICH_REGION"), &cfg.Region)
	s.setString("endpoint", os.Getenv("ENRICH_ENDPOINT"), &cfg.Endpoint)
	s.setString("access-key-id", os.Getenv("ENRICH_ACCESS_KEY_ID"), &cfg.AccessKeyID)
	s.setString("secret-access-key", os.Getenv("ENRICH_SECRET_ACCESS_KEY"), &cfg.SecretAccessKey)
	s.setString("monitoring-url", os.Getenv("ENRICH_MONITORING_URL"), &cfg.MonitoringURL)
	s.setString("auth-key", os.Getenv("ENRICH_AUTH_KEY"), &cfg.AuthKey)
	s.setString("metrics-addr", os.Getenv("ENRICH_METRICS_ADDR"), &cfg.MetricsAddr)

	if err := s.setDuration("time-limit", os.Getenv("ENRICH_TIME_LIMIT"), &cfg.TimeLimit); err != nil {
		return err
	}
	if err := s.setDuration("min-backoff", os.Getenv("ENRICH_MIN_BACKOFF"), &cfg.MinBackoff); err != nil {
		return err
	}
	if err := s.setDuration("max-backoff", os.Getenv("ENRICH_MAX_BACKOFF"), &cfg.MaxBackoff); err != nil {
		return err
	}
	if err := s.setDuration("request-timeout", os.Getenv("ENRICH_REQUEST_TIMEOUT"), &cfg.RequestTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("byte-limit", os.Getenv("ENRICH_BYTE_LIMIT"), &cfg.ByteLimit); err != nil {
		return err
	}
	if err := s.setIntFromString("record-limit", os.Getenv("ENRICH_RECORD_LIMIT"), &cfg.RecordLimit); err != nil {
		return err
	}
	if err := s.setIntFromString("max-record-bytes", os.Getenv("ENRICH_MAX_RECORD_BYTES"), &cfg.MaxRecordBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("max-attempts", os.Getenv("ENRICH_MAX_ATTEMPTS"), &cfg.MaxAttempts); err != nil {
		return err
	}
	if err := s.setIntFromString("partition-key-field", os.Getenv("ENRICH_PARTITION_KEY_FIELD"), &cfg.PartitionKeyField); err != nil {
		return err
	}

	return nil
}
