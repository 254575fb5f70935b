package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nasa/cFE-sub018/internal/catalog"
	"github.com/nasa/cFE-sub018/pkg/inspectclient"
	"github.com/nasa/cFE-sub018/pkg/sb"
)

var (
	// Global flags
	serverAddr  string
	token       string
	timeout     time.Duration
	catalogPath string

	// Global client instance
	client *inspectclient.Client
)

// fullRange accepts any message id except the invalid sentinel
var fullRange = sb.MsgIDRange{Highest: sb.InvalidMsgID - 1}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sbr-cli",
		Short: "Software bus route inspector command line interface",
		Long: `sbr-cli inspects the routes of a running sbrd daemon.
It resolves message ids, lists routes and their destinations, shows routing
statistics and asks the daemon to write routing or map info dumps.`,
		PersistentPreRunE: initializeClient,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if client != nil {
				err := client.Close()
				client = nil
				return err
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "localhost:9190", "Route inspector address")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("SBR_TOKEN"), "JWT token (defaults to $SBR_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Message id catalog file for resolving names")

	// Add subcommands
	rootCmd.AddCommand(newTokenCommand())
	rootCmd.AddCommand(newRouteCommand())
	rootCmd.AddCommand(newStatsCommand())
	rootCmd.AddCommand(newDumpCommand())
	rootCmd.AddCommand(newCatalogCommand())

	return rootCmd
}

// localCommand marks commands that never talk to the daemon
const localCommand = "local"

// initializeClient sets up the gRPC client with global configuration
func initializeClient(cmd *cobra.Command, args []string) error {
	// Skip client initialization for help and local commands
	if cmd.Name() == "help" || cmd.Parent() == nil {
		return nil
	}
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[localCommand]; ok {
			return nil
		}
	}

	var err error
	client, err = inspectclient.NewClient(inspectclient.Config{
		Address: serverAddr,
		Token:   token,
		Timeout: timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// loadCatalog loads the --catalog file, or an empty catalog that only resolves numbers
func loadCatalog() (*catalog.Catalog, error) {
	if catalogPath == "" {
		return catalog.New(fullRange), nil
	}
	return catalog.LoadFile(catalogPath, fullRange)
}

// resolveMsgID accepts a catalog name or a number
func resolveMsgID(s string) (sb.MsgID, error) {
	names, err := loadCatalog()
	if err != nil {
		return sb.InvalidMsgID, err
	}
	return names.Resolve(s)
}
