package main

import (
	"fmt"
	"io"
	"time"

	"crewpay/internal/config"
	"crewpay/internal/models"
	"crewpay/internal/utils"

	"github.com/spf13/cobra"
)

var knownRoles = map[string]bool{
	models.RoleAdmin:      true,
	models.RoleReviewer:   true,
	models.RolePoster:     true,
	models.RoleContractor: true,
	models.RoleSystem:     true,
}

func newTokenCmd(out io.Writer) *cobra.Command {
	var userID uint
	var role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed access token using JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !knownRoles[role] {
				return fmt.Errorf("unknown role %q", role)
			}
			if userID == 0 && role != models.RoleSystem {
				return fmt.Errorf("--user-id is required for role %s", role)
			}
			token, err := utils.IssueToken(config.GetEnv("JWT_SECRET", ""), models.UserClaims{
				UserID:      userID,
				Role:        role,
				Permissions: models.GetDefaultPermissions(role),
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, token)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user-id", 0, "subject user id")
	cmd.Flags().StringVar(&role, "role", models.RoleSystem, "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "token lifetime")
	return cmd
}
