package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/marketstream/cli/pkg/output"
	"github.com/telhawk-systems/marketstream/common/logging"
	"github.com/telhawk-systems/marketstream/common/messaging"
	natsclient "github.com/telhawk-systems/marketstream/common/messaging/nats"
	"github.com/telhawk-systems/marketstream/internal/eventstats"
	"github.com/telhawk-systems/marketstream/internal/relay"
	"github.com/telhawk-systems/marketstream/internal/server"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

var relayCmd = &cobra.Command{
	Use:   "relay [topic...]",
	Short: "Republish events onto NATS",
	Long: `Subscribe to the feed and publish every event to NATS on
market.events.<event_type>, with the collection, chain and send time as
message headers.`,
	Example: `  mstream relay '*'
  MSTREAM_NATS_URL=nats://nats:4222 mstream relay neon-vortex-1`,
	RunE: runRelay,
}

var relayTailCmd = &cobra.Command{
	Use:   "tail [subject]",
	Short: "Print events published on NATS",
	Long:  "Subscribe to relayed events on NATS (default market.events.>) and print them.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRelayTail,
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.AddCommand(relayTailCmd)
}

// dialBus opens the NATS connection both relay commands use.
var dialBus = func(c natsclient.Config) (messaging.Bus, error) {
	return natsclient.NewClient(c, logger)
}

// tailCheckInterval is how often relay tail checks its subscription.
var tailCheckInterval = time.Second

func natsConfig() natsclient.Config {
	c := natsclient.DefaultConfig()
	c.URL = cfg.NATS.URL
	if cfg.NATS.Name != "" {
		c.Name = cfg.NATS.Name
	}
	c.Token = cfg.NATS.Token
	c.MaxReconnects = cfg.NATS.MaxReconnects
	if cfg.NATS.ReconnectWait > 0 {
		c.ReconnectWait = cfg.NATS.ReconnectWait
	}
	return c
}

// recordingSource counts every event it hands to the relay.
type recordingSource struct {
	src       relay.Source
	collector *eventstats.Collector
}

func (s recordingSource) NextEvent() (schema.StreamEvent, bool) {
	event, ok := s.src.NextEvent()
	if ok {
		s.collector.Record(event)
	}
	return event, ok
}

func runRelay(cmd *cobra.Command, args []string) error {
	if !cfg.NATS.Enabled {
		return fmt.Errorf("nats is disabled (set nats.enabled)")
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	bus, err := dialBus(natsConfig())
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Drain(); err != nil {
			logger.Warn("NATS drain failed", logging.Error(err))
		}
	}()

	stopMetrics := startMetrics(server.HealthCheck{Name: "nats", Healthy: bus.IsConnected})
	defer stopMetrics()

	collector, stopStats := startStats(ctx)
	defer stopStats()

	client, err := connect(ctx, topicsFor(args))
	if err != nil {
		return err
	}
	defer client.Close()

	start := time.Now()
	relayed, err := relay.New(bus, logger).Run(ctx, recordingSource{src: client, collector: collector})
	output.Info("Relayed %d events in %s", relayed, time.Since(start).Round(time.Millisecond))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return streamEnd(client)
}

type relayedMessage struct {
	Subject string            `json:"subject"`
	Headers map[string]string `json:"headers,omitempty"`
	Event   json.RawMessage   `json:"event"`
}

func runRelayTail(cmd *cobra.Command, args []string) error {
	subject := messaging.SubjectAllEvents
	if len(args) == 1 {
		subject = args[0]
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	bus, err := dialBus(natsConfig())
	if err != nil {
		return err
	}
	defer bus.Close()

	var mu sync.Mutex
	w := cmd.OutOrStdout()
	sub, err := bus.Subscribe(subject, func(_ context.Context, msg *messaging.Message) error {
		mu.Lock()
		defer mu.Unlock()
		return writeRelayed(w, msg)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	output.Success("Listening on %s", sub.Subject())

	ticker := time.NewTicker(tailCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !sub.IsValid() {
				return fmt.Errorf("subscription to %s ended", sub.Subject())
			}
		}
	}
}

func writeRelayed(w io.Writer, msg *messaging.Message) error {
	m := relayedMessage{Subject: msg.Subject, Headers: msg.Metadata, Event: msg.Data}
	switch format {
	case output.FormatJSON:
		return output.JSONLine(w, m)
	case output.FormatYAML:
		fmt.Fprintln(w, "---")
		return output.YAML(w, m)
	}

	eventType, _ := messaging.EventTypeFromSubject(msg.Subject)
	chain := msg.Metadata[messaging.HeaderChain]
	if chain == "" {
		chain = "-"
	}
	_, err := fmt.Fprintf(w, "%-20s  %-21s  %-24s  %s\n",
		msg.ReceivedAt.UTC().Format(time.RFC3339),
		eventType,
		msg.Metadata[messaging.HeaderCollection],
		chain,
	)
	return err
}
