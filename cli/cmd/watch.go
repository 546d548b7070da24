package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/marketstream/cli/pkg/output"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

var watchCmd = &cobra.Command{
	Use:   "watch [topic...]",
	Short: "Print events as they arrive",
	Long: `Subscribe to one or more topics and print every event.

A topic is a collection slug, "collection:<slug>", or "*" for all collections.
With no topics the configured stream.topics are used.`,
	Example: `  mstream watch neon-vortex-1
  mstream watch '*' --limit 20 -o json`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().IntP("limit", "n", 0, "stop after this many events (0 = no limit)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

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

	w := cmd.OutOrStdout()
	if format == output.FormatTable {
		writeEventHeader(w)
	}

	seen := 0
	for limit == 0 || seen < limit {
		event, ok := client.NextEvent()
		if !ok {
			return streamEnd(client)
		}
		collector.Record(event)
		if err := writeEvent(w, event); err != nil {
			return err
		}
		seen++
	}
	return nil
}

const eventLine = "%-20s  %-21s  %-24s  %-9s  %s\n"

func writeEventHeader(w io.Writer) {
	fmt.Fprintf(w, eventLine, "SENT_AT", "EVENT_TYPE", "COLLECTION", "CHAIN", "ITEM")
}

func writeEvent(w io.Writer, event schema.StreamEvent) error {
	switch format {
	case output.FormatJSON:
		return output.JSONLine(w, event)
	case output.FormatYAML:
		fmt.Fprintln(w, "---")
		return output.YAML(w, event)
	}

	chain := "-"
	if c, ok := event.Chain(); ok {
		chain = c.WireName()
	}
	_, err := fmt.Fprintf(w, eventLine,
		event.SentAt.UTC().Format(time.RFC3339),
		event.Type(),
		event.CollectionSlug(),
		chain,
		itemOf(event),
	)
	return err
}

// itemOf names the item an event is about, or "-" for collection-wide events.
func itemOf(event schema.StreamEvent) string {
	var item *schema.Item
	switch p := event.Payload.(type) {
	case *schema.ItemListed:
		item = &p.Item
	case *schema.ItemSold:
		item = &p.Item
	case *schema.ItemCancelled:
		item = &p.Item
	case *schema.ItemTransferred:
		item = &p.Item
	case *schema.ItemMetadataUpdated:
		item = &p.Item
	case *schema.ItemReceivedOffer:
		item = &p.Item
	case *schema.ItemReceivedBid:
		item = &p.Item
	case *schema.OrderInvalidate:
		item = &p.Item
	case *schema.OrderRevalidate:
		item = &p.Item
	}
	switch {
	case item == nil:
		return "-"
	case item.NftID != nil:
		return item.NftID.String()
	case item.Permalink != "":
		return item.Permalink
	default:
		return "-"
	}
}
