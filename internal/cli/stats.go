package cli

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/hosttab/hosttab/internal/model"
	"github.com/hosttab/hosttab/internal/stats"
)

var (
	statsEvents    string
	statsFamily    string
	statsThreshold int
	statsOut       string
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-family hosting balance",
	Long: `Stats folds classified hosting events into per-family balance:
counts per category, last hosted dates, and a derived status
(overdue, balanced, we-owe, they-owe). Stats are always recomputed
from the event stream, never stored.

Example:
  hosttab stats --events classified.json
  hosttab stats --events classified.json --family fam-smith --threshold 90`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsEvents, "events", "", "classified hosting events file (JSON or YAML)")
	statsCmd.Flags().StringVar(&statsFamily, "family", "", "family id (default: all families in the file)")
	statsCmd.Flags().IntVar(&statsThreshold, "threshold", 0, "overdue threshold in days (default from config)")
	statsCmd.Flags().StringVar(&statsOut, "out", "-", `output path ("-" for stdout)`)

	_ = statsCmd.MarkFlagRequired("events")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	threshold := cfg.Stats.OverdueThresholdDays
	if statsThreshold > 0 {
		threshold = statsThreshold
	}

	// Input may be the raw classified list or a whole classify batch result.
	events, err := loadHostingEvents(statsEvents)
	if err != nil {
		var batch struct {
			Classified []model.HostingEvent `json:"classified"`
		}
		if berr := readInto(statsEvents, &batch); berr != nil || len(batch.Classified) == 0 {
			return err
		}
		events = batch.Classified
	}

	familyIDs := []string{statsFamily}
	if statsFamily == "" {
		seen := make(map[string]bool)
		familyIDs = familyIDs[:0]
		for _, ev := range events {
			if ev.FamilyID != "" && !seen[ev.FamilyID] {
				seen[ev.FamilyID] = true
				familyIDs = append(familyIDs, ev.FamilyID)
			}
		}
		sort.Strings(familyIDs)
	}

	now := time.Now()
	results := make([]model.FamilyHostingStats, 0, len(familyIDs))
	for _, id := range familyIDs {
		results = append(results, stats.Aggregate(id, events, threshold, now))
	}

	if err := writeJSON(statsOut, results); err != nil {
		return err
	}

	for _, s := range results {
		fmt.Fprintf(os.Stderr, "%s: they %d / we %d / neutral %d -> %s\n",
			s.FamilyID, s.TheyHostedCount, s.WeHostedCount, s.NeutralCount, s.Status)
	}
	return nil
}
