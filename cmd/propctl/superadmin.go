package main

import (
	"github.com/spf13/cobra"

	"propertyhub/internal/platform/database"
)

func createSuperAdminCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create a platform super admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if _, err := database.Migrate(ctx, e.globalDB, database.TargetGlobal); err != nil {
				return err
			}
			user, err := e.orgs.CreateSuperAdmin(ctx, email, password, name)
			if err != nil {
				return err
			}
			cmd.Printf("super admin %s created (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (min 8 characters)")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
