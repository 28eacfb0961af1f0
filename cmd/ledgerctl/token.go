package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"library-backend/internal/config"
	"library-backend/internal/shared"
	"library-backend/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	var (
		memberID string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != shared.RoleMember && role != shared.RoleAdmin {
				return fmt.Errorf("--role must be %q or %q", shared.RoleMember, shared.RoleAdmin)
			}
			if memberID == "" {
				memberID = uuid.NewString()
			} else if _, err := uuid.Parse(memberID); err != nil {
				return fmt.Errorf("--member-id: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL()).GenerateAccessToken(memberID, role)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "member %s, role %s, valid %s\n", memberID, role, cfg.JWT.AccessTokenTTL())
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&memberID, "member-id", "", "member uuid (random when empty)")
	cmd.Flags().StringVar(&role, "role", shared.RoleMember, "member or admin")
	return cmd
}
