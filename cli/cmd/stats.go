package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/marketstream/cli/pkg/output"
	"github.com/telhawk-systems/marketstream/internal/eventstats"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

var statsCmd = &cobra.Command{
	Use:   "stats [event_type...]",
	Short: "Show event statistics recorded in Redis",
	Long: `Show totals and recent counts per event type, as recorded by watch,
measure or relay when redis.enabled is set.`,
	Example: `  mstream stats
  mstream stats item_sold item_listed -o json
  mstream stats --top 10`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Int("top", 0, "show the N most active collections today instead")
	statsCmd.Flags().String("day", "", "day for --top, YYYY-MM-DD (default today, UTC)")
}

func runStats(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")
	dayFlag, _ := cmd.Flags().GetString("day")

	ctx := cmd.Context()
	client, err := eventstats.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer client.Close()

	w := cmd.OutOrStdout()

	if top > 0 {
		day := time.Now().UTC()
		if dayFlag != "" {
			day, err = time.Parse(time.DateOnly, dayFlag)
			if err != nil {
				return fmt.Errorf("invalid --day: %w", err)
			}
		}
		ranked, err := client.TopCollections(ctx, day, top)
		if err != nil {
			return err
		}
		return output.Render(w, format, ranked, func() *output.Table {
			t := output.NewTable([]string{"RANK", "COLLECTION", "EVENTS"})
			for i, c := range ranked {
				t.AddRow([]string{strconv.Itoa(i + 1), c.Slug, strconv.FormatInt(c.Events, 10)})
			}
			return t
		})
	}

	var all []*eventstats.Stats
	if len(args) == 0 {
		all, err = client.GetAllStats(ctx)
		if err != nil {
			return err
		}
	} else {
		for _, a := range args {
			t := schema.EventType(a)
			if !t.Known() {
				return fmt.Errorf("unknown event type %q", a)
			}
			s, err := client.GetStats(ctx, t)
			if err != nil {
				return err
			}
			all = append(all, s)
		}
	}

	return output.Render(w, format, all, func() *output.Table {
		t := output.NewTable([]string{"EVENT_TYPE", "TOTAL", "LAST_HOUR", "LAST_24H", "LAST_SEEN"})
		for _, s := range all {
			lastSeen := "-"
			if s.LastSeenAt != nil {
				lastSeen = s.LastSeenAt.Format(time.RFC3339)
			}
			t.AddRow([]string{
				string(s.EventType),
				strconv.FormatInt(s.TotalEvents, 10),
				strconv.FormatInt(s.EventsLastHour, 10),
				strconv.FormatInt(s.EventsLast24h, 10),
				lastSeen,
			})
		}
		return t
	})
}
