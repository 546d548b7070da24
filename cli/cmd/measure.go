package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/marketstream/cli/pkg/output"
	"github.com/telhawk-systems/marketstream/internal/throughput"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

var measureCmd = &cobra.Command{
	Use:   "measure [topic...]",
	Short: "Measure per-type event rates",
	Long: `Subscribe and print the average rate of each event type since start,
refreshed every --interval.`,
	Example: `  mstream measure
  mstream measure neon-vortex-1 --interval 5s --duration 1m -o json`,
	RunE: runMeasure,
}

func init() {
	rootCmd.AddCommand(measureCmd)
	measureCmd.Flags().Duration("interval", time.Second, "how often to print rates")
	measureCmd.Flags().Duration("duration", 0, "stop after this long (0 = until interrupted)")
}

func runMeasure(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")
	duration, _ := cmd.Flags().GetDuration("duration")
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	stopMetrics := startMetrics()
	defer stopMetrics()

	collector, stopStats := startStats(ctx)
	defer stopStats()

	client, err := connect(ctx, topicsFor(args))
	if err != nil {
		return err
	}
	defer client.Close()

	meter := throughput.NewMeter()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			event, ok := client.NextEvent()
			if !ok {
				return
			}
			meter.Record(event)
			collector.Record(event)
		}
	}()

	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	w := cmd.OutOrStdout()
	if format == output.FormatTable {
		writeRateHeader(w)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := writeRates(w, meter.Snapshot()); err != nil {
				return err
			}
		case <-deadline:
			_ = client.Close()
			<-drained
			return writeRates(w, meter.Snapshot())
		case <-drained:
			if err := writeRates(w, meter.Snapshot()); err != nil {
				return err
			}
			return streamEnd(client)
		}
	}
}

func writeRateHeader(w io.Writer) {
	cols := make([]string, 0, len(schema.EventTypes)+1)
	for _, t := range schema.EventTypes {
		cols = append(cols, fmt.Sprintf("%10s", throughput.Column(t)))
	}
	cols = append(cols, fmt.Sprintf("%10s", "total"))
	fmt.Fprintln(w, strings.Join(cols, " | "))
}

func writeRates(w io.Writer, snap throughput.Snapshot) error {
	switch format {
	case output.FormatJSON:
		return output.JSONLine(w, snap)
	case output.FormatYAML:
		fmt.Fprintln(w, "---")
		return output.YAML(w, snap)
	}

	cols := make([]string, 0, len(snap.Rates)+1)
	for _, r := range snap.Rates {
		cols = append(cols, fmt.Sprintf("%8.2f/s", r.PerSecond))
	}
	cols = append(cols, fmt.Sprintf("%8.2f/s", snap.Total.PerSecond))
	_, err := fmt.Fprintln(w, strings.Join(cols, " | "))
	return err
}
