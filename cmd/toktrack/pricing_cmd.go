package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfarley16/toktrack/internal/pricing"
)

// NewPricingCommand groups pricing-cache maintenance subcommands.
func NewPricingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "Pricing cache maintenance",
	}
	cmd.AddCommand(newPricingRefreshCommand())
	return cmd
}

func newPricingRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force-refetch the pricing table, bypassing the TTL",
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := pricing.DefaultCachePath()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			ps, err := pricing.WithCachePath(ctx, path)
			if err != nil {
				return err
			}
			if err := ps.Refresh(ctx); err != nil {
				return fmt.Errorf("refreshing pricing table: %w", err)
			}
			fmt.Printf("Pricing table refreshed: %d models cached at %s\n", ps.ModelCount(), path)
			return nil
		},
	}
}
