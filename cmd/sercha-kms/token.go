package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kms/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/services"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is not configured")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			authService := services.NewAuthService(auth.NewAdapter(cfg.Auth.JWTSecret))
			token, err := authService.IssueToken(context.Background(), domain.AuthContext{
				UserID:    userID,
				Email:     email,
				Role:      domain.Role(role),
				SessionID: uuid.NewString(),
			}, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id carried by the token (required)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
