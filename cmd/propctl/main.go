// Command propctl is the operator CLI for schema migrations and one-off
// administrative runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "propctl",
		Short:         "PropertyHub administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "configs/config.yaml", "Path to config file")

	root.AddCommand(
		migrateCmd(),
		generateRentCmd(),
		createSuperAdminCmd(),
	)
	return root
}
