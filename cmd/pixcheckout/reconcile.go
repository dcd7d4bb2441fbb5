package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Settle stale PENDING billings once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if batch <= 0 {
				batch = a.cfg.Reconciler.BatchSize
			}
			changed, err := a.service.Reconcile(cmd.Context(), a.cfg.Reconciler.OlderThan, batch)
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			a.log.Info().Int("changed", changed).Msg("reconciliation finished")
			return nil
		},
	}

	cmd.Flags().IntVarP(&batch, "batch", "n", 0, "maximum billings to check (default RECONCILE_BATCH_SIZE)")
	return cmd
}
