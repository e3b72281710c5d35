package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/models"
)

func migrateCmd() *cobra.Command {
	var target, orgRef string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long:  "Applies the embedded migrations to the global database, or to tenant databases. Without --org every organization's database is migrated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			switch target {
			case database.TargetGlobal:
				n, err := database.Migrate(ctx, e.globalDB, database.TargetGlobal)
				if err != nil {
					return err
				}
				cmd.Printf("global: %d migration(s) applied\n", n)
				return nil

			case database.TargetTenant:
				var orgs []*models.Organization
				if orgRef != "" {
					org, err := e.findOrg(ctx, orgRef)
					if err != nil {
						return err
					}
					orgs = append(orgs, org)
				} else if orgs, err = e.orgs.ListAccessible(ctx); err != nil {
					return err
				}

				failed := 0
				for _, org := range orgs {
					db, err := e.orgs.TenantDB(org)
					if err == nil {
						var n int
						if n, err = database.Migrate(ctx, db, database.TargetTenant); err == nil {
							cmd.Printf("%s: %d migration(s) applied\n", org.Slug, n)
							continue
						}
					}
					failed++
					cmd.PrintErrf("%s: %v\n", org.Slug, err)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d tenant database(s) failed to migrate", failed, len(orgs))
				}
				return nil
			}
			return fmt.Errorf("invalid target %q: must be global or tenant", target)
		},
	}

	cmd.Flags().StringVar(&target, "target", database.TargetGlobal, "Migration target: global or tenant")
	cmd.Flags().StringVar(&orgRef, "org", "", "Organization ID or slug (tenant target only)")
	return cmd
}
