package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nasa/cFE-sub018/pkg/inspect"
)

func newDumpCommand() *cobra.Command {
	var kind, file string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write a routing or map info dump on the daemon",
		Long: `Ask the daemon to write a dump file into its dump directory.
"routing" writes one record per destination, "map" one record per route.
Requires an admin token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			summary, err := client.WriteMapInfo(ctx, inspect.DumpRequest{Kind: kind, File: file})
			if err != nil {
				return fmt.Errorf("failed to write dump: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ %s dump written to %s\n", summary.Kind, summary.Path)
			fmt.Fprintf(out, "Session: %s\n", summary.Session)
			fmt.Fprintf(out, "Routes: %d, Records: %d\n", summary.Routes, summary.Records)
			fmt.Fprintf(out, "SHA3-256: %s\n", summary.Digest)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "routing", "Dump kind: routing or map")
	cmd.Flags().StringVar(&file, "file", "", "Output file name inside the dump directory")

	return cmd
}
