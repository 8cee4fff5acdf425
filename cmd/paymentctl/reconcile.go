package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func reconcileCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Grant entitlements for succeeded payments that never received one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			report, err := a.Reconcile.Run(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d granted=%d skipped=%d failed=%d\n",
				report.Scanned, report.Granted, report.Skipped, report.Failed)
			if report.Failed > 0 {
				return fmt.Errorf("%d payments still failing", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 0, "Maximum payments to repair (0 uses reconcile.batch_size)")

	return cmd
}
