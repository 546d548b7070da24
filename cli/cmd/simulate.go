package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/marketstream/cli/pkg/output"
	"github.com/telhawk-systems/marketstream/common/logging"
	"github.com/telhawk-systems/marketstream/internal/feedsim"
	"github.com/telhawk-systems/marketstream/internal/server"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a local feed simulator",
	Long: `Serve a synthetic event feed speaking the same channel protocol as the
real one. Point other commands at it with stream.endpoint. The same listener
serves /healthz and /metrics.`,
	Example: `  mstream simulate --addr 127.0.0.1:4000 --interval 200ms
  MSTREAM_STREAM_ENDPOINT=ws://127.0.0.1:4000/socket/websocket mstream watch`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("addr", "", "listen address (default simulate.addr)")
	simulateCmd.Flags().Duration("interval", 0, "per-topic event interval (default simulate.interval)")
	simulateCmd.Flags().Int64("seed", 0, "generator seed (default simulate.seed, 0 = time based)")
	simulateCmd.Flags().StringSlice("slugs", nil, "collection slugs to generate events for")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	sim := cfg.Simulate
	if cmd.Flags().Changed("addr") {
		sim.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("interval") {
		sim.Interval, _ = cmd.Flags().GetDuration("interval")
	}
	if cmd.Flags().Changed("seed") {
		sim.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("slugs") {
		sim.Slugs, _ = cmd.Flags().GetStringSlice("slugs")
	}
	if sim.Seed == 0 {
		sim.Seed = time.Now().UnixNano()
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	gen := feedsim.NewGenerator(sim.Seed, sim.Slugs...)
	feed := feedsim.NewServer(feedsim.ServerOptions{
		Generator: gen,
		Token:     sim.Token,
		Interval:  sim.Interval,
		Logger:    logger,
	})

	ln, err := net.Listen("tcp", sim.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           server.NewRouter(feed),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	output.Success("Simulator listening on ws://%s/socket/websocket", ln.Addr())
	output.Info("Metrics on http://%s/metrics", ln.Addr())
	output.Info("Collections: %v", gen.Slugs())
	logger.Info("simulator started",
		"addr", ln.Addr().String(),
		"interval", sim.Interval.String(),
		"seed", sim.Seed,
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	logger.Info("shutting down simulator", "clients", feed.Clients())
	feed.CloseClients()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("simulator forced to shutdown", logging.Error(err))
	}
	return nil
}
