package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/photon/pkg/photon/diag"
	perrors "github.com/randalmurphal/photon/pkg/photon/errors"
)

func newDiagCmd() *cobra.Command {
	diagCmd := &cobra.Command{Use: "diag", Short: "Diagnostics commands"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print incidents recorded in a diagnostics database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			limit, _ := cmd.Flags().GetInt("limit")
			if path == "" {
				return fmt.Errorf("--db is required")
			}
			if path == diag.MemoryPath {
				return fmt.Errorf("--db must name a database file")
			}

			store, err := diag.Open(path, perrors.DefaultRetry)
			if err != nil {
				return err
			}
			defer store.Close()

			var incidents []diag.Incident
			if cmd.Flags().Changed("queue") {
				queueID, _ := cmd.Flags().GetUint64("queue")
				incidents, err = store.List(cmd.Context(), queueID)
			} else {
				incidents, err = store.ListAll(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(incidents) == 0 {
				fmt.Fprintln(out, "no incidents")
				return nil
			}
			for _, inc := range incidents {
				fmt.Fprintln(out, inc.String())
			}
			return nil
		},
	}
	listCmd.Flags().String("db", "", "SQLite diagnostics database")
	listCmd.Flags().Uint64("queue", 0, "only incidents of this queue id, oldest first")
	listCmd.Flags().Int("limit", 0, "newest N incidents (0 = all)")
	diagCmd.AddCommand(listCmd)

	return diagCmd
}
