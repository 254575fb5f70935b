package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "catalog",
		Short:       "Search the message id catalog",
		Long:        `Commands that read the local message id catalog given with --catalog.`,
		Annotations: map[string]string{localCommand: "true"},
	}

	cmd.AddCommand(newCatalogSearchCommand())

	return cmd
}

func newCatalogSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search [prefix]",
		Short: "List catalog names starting with prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogPath == "" {
				return fmt.Errorf("--catalog is required")
			}
			names, err := loadCatalog()
			if err != nil {
				return err
			}

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}

			out := cmd.OutOrStdout()
			entries := names.Search(prefix)
			for _, entry := range entries {
				fmt.Fprintf(out, "%-32s %v  %s\n", entry.Name, entry.MsgID, entry.Description)
			}
			fmt.Fprintf(out, "%d of %d names\n", len(entries), names.Len())
			return nil
		},
	}
}
