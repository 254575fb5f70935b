package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nasa/cFE-sub018/internal/inspect"
)

func newTokenCommand() *cobra.Command {
	var (
		secret   string
		clientID string
		admin    bool
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token",
		Long: `Issue an HS256 bearer token signed with the daemon's secret key.
Admin tokens are required for dump requests.`,
		Annotations: map[string]string{localCommand: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			auth := inspect.NewJWTAuth(secret, ttl)
			tokenString, expiresAt, err := auth.GenerateToken(clientID, admin)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tokenString)
			fmt.Fprintf(cmd.ErrOrStderr(), "✅ Token for %s (admin=%t) expires %s\n", clientID, admin, expiresAt.Format(time.RFC3339))
			fmt.Fprintf(cmd.ErrOrStderr(), "  export SBR_TOKEN=\"%s\"\n", tokenString)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Secret key of the daemon (required)")
	cmd.Flags().StringVar(&clientID, "client-id", "ground", "Client ID placed in the token")
	cmd.Flags().BoolVar(&admin, "admin", false, "Issue an admin token")
	cmd.Flags().DurationVar(&ttl, "ttl", inspect.DefaultTokenTTL, "Token lifetime")

	// Mark secret as required
	if err := cmd.MarkFlagRequired("secret"); err != nil {
		panic(fmt.Sprintf("Failed to mark secret flag as required: %v", err))
	}

	return cmd
}
