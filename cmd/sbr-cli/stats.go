package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show routing statistics",
		Long:  "Show route table occupancy, subscriptions, hash collisions and message counters",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	stats, err := client.GetStatistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Strategy: %s\n", stats.Strategy)
	fmt.Fprintf(out, "Routes: %d/%d\n", stats.RoutesInUse, stats.MaxRoutes)
	fmt.Fprintf(out, "Subscriptions: %d (peak %d, pool %d)\n", stats.Subscriptions, stats.PeakSubscriptions, stats.MaxDestinations)
	fmt.Fprintf(out, "Hash Collisions: %d (max %d)\n", stats.TotalCollisions, stats.MaxCollisions)
	fmt.Fprintf(out, "Messages Routed: %d\n", stats.MsgsRouted)
	fmt.Fprintf(out, "No Subscribers: %d\n", stats.NoSubscribers)
	return nil
}
