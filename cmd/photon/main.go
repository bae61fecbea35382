// Command photon runs the photon greeter demo and inspects what photon
// queues record.
//
// Usage:
//
//	photon run [--config photon.yaml] [--names Bob,Carol] [--diag incidents.db]
//	photon diag list --db incidents.db
//	photon color pack --hex '#336699' --alpha 255
//	photon charset encode 'héllo'
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
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "photon:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "photon",
		Short:         "Typed concurrent event queue tools",
		Long:          "photon runs the greeter demo queue and inspects diagnostics recorded by photon queues.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newDiagCmd())
	rootCmd.AddCommand(newColorCmd())
	rootCmd.AddCommand(newCharsetCmd())
	return rootCmd
}
