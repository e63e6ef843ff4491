package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfarley16/toktrack/internal/dataloader"
)

// NewDailyCommand prints the per-day rollup as a text table or, with
// --json, the raw DailySummary slice.
func NewDailyCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Print a day-by-day usage report",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := dataloader.New().Load(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(result.Summaries)
			}

			if len(result.Summaries) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}
			fmt.Printf("%-12s %10s %10s %10s %12s\n", "DATE", "INPUT", "OUTPUT", "CACHED", "COST")
			for _, d := range result.Summaries {
				fmt.Printf("%-12s %10d %10d %10d %12.4f\n",
					d.Date.Format("2006-01-02"),
					d.TotalInputTokens, d.TotalOutputTokens,
					d.TotalCacheReadTokens+d.TotalCacheCreationTokens,
					d.TotalCostUSD)
			}
			if result.CacheWarning != nil {
				fmt.Fprintf(os.Stderr, "[toktrack] Warning: %s\n", result.CacheWarning.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit raw JSON instead of a text table")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
