package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lorrc/support-desk/internal/auth"
	"github.com/lorrc/support-desk/internal/config"
)

var (
	tokenOperator string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token for an operator",
	Long:  "Mint a bearer token for the desk API, signed with JWT_SECRET.",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ttl := cfg.JWT.AccessTokenTTL
	if tokenTTL > 0 {
		ttl = tokenTTL
	}

	token, err := auth.NewTokenManager(cfg.JWT.Secret, ttl).GenerateToken(tokenOperator)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "operator name carried in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to JWT_ACCESS_TOKEN_TTL)")
	_ = tokenCmd.MarkFlagRequired("operator")
	rootCmd.AddCommand(tokenCmd)
}
