package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfarley16/toktrack/internal/aggregator"
	"github.com/wfarley16/toktrack/internal/dataloader"
)

// NewStatsCommand prints totals and a per-source breakdown.
func NewStatsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print totals and per-source breakdown",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := dataloader.New().Load(ctx)
			if err != nil {
				return err
			}

			total := aggregator.TotalFromDaily(result.Summaries)

			if asJSON {
				return printJSON(struct {
					Total       any `json:"total"`
					SourceUsage any `json:"source_usage"`
				}{Total: total, SourceUsage: result.SourceUsage})
			}

			fmt.Printf("Days tracked:   %d\n", total.DayCount)
			fmt.Printf("Entries:        %d\n", total.EntryCount)
			fmt.Printf("Input tokens:   %d\n", total.TotalInputTokens)
			fmt.Printf("Output tokens:  %d\n", total.TotalOutputTokens)
			fmt.Printf("Cache read:     %d\n", total.TotalCacheReadTokens)
			fmt.Printf("Cache create:   %d\n", total.TotalCacheCreationTokens)
			fmt.Printf("Total cost:     $%.4f\n\n", total.TotalCostUSD)

			fmt.Printf("%-20s %14s %12s\n", "SOURCE", "TOKENS", "COST")
			for _, s := range result.SourceUsage {
				fmt.Printf("%-20s %14d %12.4f\n", s.Source, s.TotalTokens, s.TotalCostUSD)
			}
			if result.CacheWarning != nil {
				fmt.Fprintf(os.Stderr, "[toktrack] Warning: %s\n", result.CacheWarning.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit raw JSON instead of a text report")
	return cmd
}
