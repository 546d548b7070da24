package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/marketstream/cli/pkg/output"
	"github.com/telhawk-systems/marketstream/common/logging"
	"github.com/telhawk-systems/marketstream/internal/config"
	"github.com/telhawk-systems/marketstream/internal/eventstats"
	"github.com/telhawk-systems/marketstream/internal/server"
	"github.com/telhawk-systems/marketstream/pkg/stream"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *logging.Logger
	format  output.Format
)

var rootCmd = &cobra.Command{
	Use:   "mstream",
	Short: "Marketplace event stream CLI",
	Long: `mstream connects to the marketplace event feed over its Phoenix channel
protocol.

Watch events as they happen, measure per-type throughput, relay events onto
NATS, read Redis-backed event statistics, or run a local feed simulator.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./mstream.yaml or $HOME/.config/mstream/mstream.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().String("log-level", "", "log level override: debug, info, warn, error")
}

func initConfig(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	// Logs go to stderr so event output on stdout stays pipeable.
	logger = logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	raw, _ := cmd.Flags().GetString("output")
	format, err = output.ParseFormat(raw)
	return err
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// topicsFor returns the topics named on the command line, or the configured
// ones when none are given.
func topicsFor(args []string) []stream.Topic {
	if len(args) == 0 {
		return cfg.Topics()
	}
	topics := make([]stream.Topic, 0, len(args))
	for _, a := range args {
		topics = append(topics, stream.ParseTopic(a))
	}
	return topics
}

// connect opens a feed session and subscribes to topics. The session is
// closed when ctx is done.
func connect(ctx context.Context, topics []stream.Topic) (*stream.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := append(cfg.StreamOptions(), stream.WithLogger(logger))
	client, err := stream.Connect(ctx, cfg.NetworkValue(), cfg.Stream.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	for _, topic := range topics {
		if err := client.Subscribe(topic); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		logger.Info("subscribed", logging.Topic(topic.String()), logging.SessionID(client.SessionID()))
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-client.Done():
		}
	}()
	return client, nil
}

// streamEnd turns the client's terminal state into the command result.
func streamEnd(client *stream.Client) error {
	if err := client.Err(); err != nil {
		return fmt.Errorf("stream ended: %w", err)
	}
	return nil
}

// startMetrics serves /metrics and /healthz when enabled and returns a
// shutdown func.
func startMetrics(checks ...server.HealthCheck) func() {
	if !cfg.Metrics.Enabled {
		return func() {}
	}

	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           server.NewMetricsRouter(checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", logging.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server forced to shutdown", logging.Error(err))
		}
	}
}

// startStats returns a Redis stats collector when enabled. Failure to reach
// Redis is logged and stats are skipped.
func startStats(ctx context.Context) (*eventstats.Collector, func()) {
	if !cfg.Redis.Enabled {
		return nil, func() {}
	}

	client, err := eventstats.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn("event stats disabled", logging.Error(err))
		return nil, func() {}
	}

	collector := eventstats.NewCollector(client, cfg.Redis.FlushInterval, logger)
	logger.Info("event stats enabled", "flush_interval", cfg.Redis.FlushInterval.String())
	return collector, func() {
		collector.Stop()
		_ = client.Close()
	}
}
