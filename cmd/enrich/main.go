package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/globeandmail/enrich/internal/app"
	"github.com/globeandmail/enrich/internal/cliconfig"
	"github.com/globeandmail/enrich/internal/configwatch"
	"github.com/globeandmail/enrich/internal/kinesis"
	"github.com/globeandmail/enrich/internal/metrics"
	"github.com/globeandmail/enrich/internal/ports"
	"github.com/globeandmail/enrich/internal/sink"
	"github.com/globeandmail/enrich/internal/tracker"
	"github.com/globeandmail/enrich/pkg/log"
)

const helpDescription = `
Read newline-delimited events from stdin and deliver them to an AWS Kinesis
stream in bounded batches.

Highlights:
  - Batches on byte, record-count, and time thresholds; never splits a batch
    beyond the stream's per-call limits.
  - Retries only the records the stream rejected, with jittered backoff.
  - Configure via file, environment (ENRICH_*), or flags.

Records at or above the per-record byte limit are dropped and reported, never
retried.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  tail -F events.log | enrich --stream enriched-events
  cat events.tsv | enrich --stream enriched-events --partition-key-field 2
  enrich --config $HOME/.enrich/config.toml < events.log
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	zl := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "enrich",
		Short:   "Deliver newline-delimited events to a Kinesis stream in bounded batches",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Determine config path
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			// Snapshot of defaults plus explicit flag values. Reloads start
			// from here so file and env keep their place in the precedence
			// order (file < env < flag).
			base := cfg

			loadConfig := func() (cliconfig.Config, error) {
				c := base
				if cfgFile != "" && cliconfig.FileExists(cfgFile) {
					fc, err := cliconfig.LoadFileConfig(cfgFile)
					if err != nil {
						return c, fmt.Errorf("load config: %w", err)
					}
					if err := cliconfig.ApplyFileConfig(&c, fc, changed); err != nil {
						return c, err
					}
				}
				if err := cliconfig.ApplyEnvConfig(&c, changed); err != nil {
					return c, err
				}
				if err := c.Validate(); err != nil {
					return c, err
				}
				return c, nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Log configuration (masking credentials)
			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			if len(logCfg.SecretAccessKey) > 0 {
				logCfg.SecretAccessKey = "*****"
			}
			zl.Info().Interface("config", logCfg).Msg("configuration")

			logger := log.NewZerologAdapterWithLogger(zl)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := metrics.NewRegistry()

			buildSink := func(ctx context.Context, c cliconfig.Config) (*sink.Sink, error) {
				api, err := kinesis.NewAPI(ctx, c.ClientConfig())
				if err != nil {
					return nil, fmt.Errorf("aws config: %w", err)
				}
				client := kinesis.NewClient(api, c.StreamName, c.RequestTimeout, logger)

				trackers := []ports.FailureTracker{reg}
				if c.MonitoringURL != "" {
					httpClient := &http.Client{Timeout: 10 * time.Second}
					trackers = append(trackers, tracker.NewHTTPTracker(httpClient, c.MonitoringURL, c.AuthKey, logger))
				}

				return sink.New(ctx, c.SinkConfig(), client, client,
					sink.WithLogger(logger),
					sink.WithTracker(tracker.NewMulti(trackers...)),
					sink.WithEmitter(reg),
				)
			}

			s, err := buildSink(ctx, cfg)
			if err != nil {
				return fmt.Errorf("create sink: %w", err)
			}

			if cfg.MetricsAddr != "" {
				srv := metrics.NewServer(cfg.MetricsAddr, reg, logger)
				go func() {
					if err := srv.Start(); err != nil {
						logger.Error("metrics server failed", log.Err(err))
					}
				}()
				defer srv.Stop(context.Background())
			}

			runner := app.NewRunner(app.RunnerConfig{
				PartitionKeyField: cfg.PartitionKeyField,
				// Let oversized lines through to the sink's drop-and-report
				// path instead of failing the scan.
				MaxLineBytes: 2 * cfg.MaxRecordBytes,
			}, s, logger)

			// Watch the config file and rebuild the sink when thresholds
			// change. Flag-set values stay pinned.
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				watcher := configwatch.New(cfgFile, configwatch.DefaultDebounce, logger)
				if err := watcher.Start(ctx); err != nil {
					logger.Warn("config watch disabled", log.Err(err))
				} else {
					defer watcher.Stop()
					go func() {
						for {
							select {
							case <-ctx.Done():
								return
							case <-watcher.C:
								next, err := loadConfig()
								if err != nil {
									logger.Warn("config reload skipped", log.Err(err))
									continue
								}
								ns, err := buildSink(ctx, next)
								if err != nil {
									logger.Warn("config reload skipped", log.Err(err))
									continue
								}
								runner.Reload(ctx, ns)
							}
						}
					}()
				}
			}

			err = runner.Run(ctx, os.Stdin)
			if errors.Is(err, context.Canceled) {
				logger.Info("received signal, stopped")
				return nil
			}
			return err
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.enrich/config.toml)")
	root.Flags().StringVar(&cfg.StreamName, "stream", cfg.StreamName, "destination Kinesis stream name")
	root.Flags().StringVar(&cfg.Region, "region", cfg.Region, "AWS region of the stream")
	root.Flags().StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "Kinesis endpoint override (local stacks)")
	root.Flags().StringVar(&cfg.AccessKeyID, "access-key-id", cfg.AccessKeyID, "static AWS access key (defaults to the SDK credential chain)")
	root.Flags().StringVar(&cfg.SecretAccessKey, "secret-access-key", cfg.SecretAccessKey, "static AWS secret key")

	root.Flags().IntVar(&cfg.ByteLimit, "byte-limit", cfg.ByteLimit, "seal a batch when its payload would reach this many bytes")
	root.Flags().IntVar(&cfg.RecordLimit, "record-limit", cfg.RecordLimit, "seal a batch at this many records")
	root.Flags().DurationVar(&cfg.TimeLimit, "time-limit", cfg.TimeLimit, "flush a non-empty batch after this long")
	root.Flags().IntVar(&cfg.MaxRecordBytes, "max-record-bytes", cfg.MaxRecordBytes, "drop records at or above this payload size")

	root.Flags().DurationVar(&cfg.MinBackoff, "min-backoff", cfg.MinBackoff, "minimum wait between retry attempts")
	root.Flags().DurationVar(&cfg.MaxBackoff, "max-backoff", cfg.MaxBackoff, "maximum wait between retry attempts")
	root.Flags().IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "per-batch attempt ceiling (0 retries forever)")
	root.Flags().DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "timeout per PutRecords call")

	root.Flags().IntVar(&cfg.PartitionKeyField, "partition-key-field", cfg.PartitionKeyField, "1-based tab-separated field to use as partition key (0: random)")

	root.Flags().StringVar(&cfg.MonitoringURL, "monitoring-url", cfg.MonitoringURL, "endpoint for delivery-failure notifications (optional)")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "bearer token for the monitoring endpoint")
	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "listen address for Prometheus metrics (optional, e.g. :9102)")

	if err := root.Execute(); err != nil {
		zl.Error().Err(err).Msg("enrich")
		os.Exit(1)
	}
}
