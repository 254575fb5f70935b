package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nasa/cFE-sub018/pkg/inspect"
	"github.com/nasa/cFE-sub018/pkg/sb"
)

func newRouteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Inspect routes",
		Long:  `Commands for resolving message ids and listing routes.`,
	}

	// Add subcommands
	cmd.AddCommand(newRouteIDCommand())
	cmd.AddCommand(newRouteGetCommand())
	cmd.AddCommand(newRouteListCommand())

	return cmd
}

func newRouteIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "id <msgid|name>",
		Short: "Resolve a message id to its route id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveMsgID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			route, err := client.GetRouteID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to resolve route: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v -> %s\n", id, formatRouteID(route))
			return nil
		},
	}
}

func newRouteGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <msgid|name>",
		Short: "Show the route of a message id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveMsgID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			route, err := client.GetRoute(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get route: %w", err)
			}
			printRoute(cmd.OutOrStdout(), *route)
			return nil
		},
	}
}

func newRouteListCommand() *cobra.Command {
	var start, chunk uint32

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all routes",
		Long: `List routes in table order. The daemon reads the table in chunks so that
listing never holds the bus lock for long.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			count := 0
			err := client.ListRoutes(context.Background(), inspect.ListRequest{StartIndex: start, MaxLoop: chunk}, func(r inspect.Route) error {
				printRoute(out, r)
				count++
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to list routes: %w", err)
			}
			fmt.Fprintf(out, "%d routes\n", count)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&start, "start", 0, "Table index of the first route")
	cmd.Flags().Uint32Var(&chunk, "chunk", 0, "Routes read per table visit (0 = server default)")

	return cmd
}

func printRoute(out io.Writer, r inspect.Route) {
	name := r.Name
	if name == "" {
		name = "-"
	}
	fmt.Fprintf(out, "%-6d %-10v %-28s route=%d seq=%d\n", r.Index, r.MsgID, name, r.RouteID, r.Sequence)
	for _, d := range r.Destinations {
		state := "active"
		if !d.Active {
			state = "disabled"
		}
		fmt.Fprintf(out, "       pipe %-4d %-8s msgs=%d\n", d.PipeID, state, d.MsgCount)
	}
}

// formatRouteID prints the invalid route id distinctly
func formatRouteID(r sb.RouteID) string {
	if r == sb.InvalidRouteID {
		return "none"
	}
	return fmt.Sprintf("%d (index %d)", r, sb.RouteIDToValue(r))
}
