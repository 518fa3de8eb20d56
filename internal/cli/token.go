package cli

import (
	"fmt"
	"time"

	"devexchange-service/internal/auth"
	"devexchange-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewTokenCmd issues a bearer token for local development.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		email  string
		admin  bool
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			raw, err := auth.NewAuthenticator(jwtSecret(cfg.Auth.JWTSecret, nil)).Issue(domain.Actor{UserID: userID, Email: email, Admin: admin}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant admin rights")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
