package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"propertyhub/internal/engine/payments"
	"propertyhub/internal/engine/webhooks"
	"propertyhub/internal/platform/metrics"
)

func generateRentCmd() *cobra.Command {
	var (
		orgRef      string
		month, year int
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "generate-rent",
		Short: "Generate one month's rent payments for an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			org, err := e.findOrg(ctx, orgRef)
			if err != nil {
				return err
			}
			db, err := e.orgs.TenantDB(org)
			if err != nil {
				return err
			}

			loc, err := time.LoadLocation(e.cfg.Scheduler.Timezone)
			if err != nil {
				return err
			}
			now := time.Now().In(loc)
			if month == 0 {
				month = int(now.Month())
			}
			if year == 0 {
				year = now.Year()
			}

			m := metrics.New()
			dispatcher := webhooks.NewDispatcher(e.cfg.Webhooks.Timeout, m)
			defer dispatcher.Wait()
			svc := payments.NewService(db, dispatcher.Bind(org.ID, db), m).
				WithClock(func() time.Time { return time.Now().In(loc) })

			var result *payments.GenerationResult
			if dryRun {
				result, err = svc.PreviewMonthlyRent(ctx, month, year)
			} else {
				result, err = svc.GenerateMonthlyRent(ctx, month, year)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&orgRef, "org", "", "Organization ID or slug")
	cmd.Flags().IntVar(&month, "month", 0, "Month (1-12), defaults to the current month")
	cmd.Flags().IntVar(&year, "year", 0, "Year, defaults to the current year")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be created without writing")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
