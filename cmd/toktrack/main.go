package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/wfarley16/toktrack/internal/config"
)

func main() {
	if os.Getenv("TOKTRACK_DEBUG") != "" {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Config path: %s\n", config.ConfigPath())
		os.Exit(1)
	}

	root := cobra.Command{
		Use:   "toktrack",
		Short: "toktrack aggregates local AI coding tool token usage into daily/weekly spend and per-model breakdowns.",
		Run: func(_ *cobra.Command, _ []string) {
			RunDashboard(cfg)
		},
	}

	root.AddCommand(NewDailyCommand())
	root.AddCommand(NewStatsCommand())
	root.AddCommand(NewBackupCommand())
	root.AddCommand(NewAnnotateCommand())
	root.AddCommand(NewPricingCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
