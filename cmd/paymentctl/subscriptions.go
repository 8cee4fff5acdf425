package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func subscriptionsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "Maintain Pro subscriptions",
	}
	cmd.AddCommand(subscriptionsSweepCmd(v))
	return cmd
}

func subscriptionsSweepCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire or mark past due subscriptions whose period ended",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			grace, _ := cmd.Flags().GetDuration("grace")
			if grace == 0 {
				grace = a.Config.Reconcile.PastDueGrace
			}
			limit, _ := cmd.Flags().GetInt("limit")

			report, err := a.Subscriptions.SweepPeriodEnds(cmd.Context(), grace, limit)
			if err != nil {
				return fmt.Errorf("sweep subscriptions: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "expired=%d past_due=%d failed=%d\n",
				report.Expired, report.PastDue, report.Failed)
			if report.Failed > 0 {
				return fmt.Errorf("%d subscriptions still failing", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().Duration("grace", 0, "Past due grace before expiry (0 uses reconcile.past_due_grace)")
	cmd.Flags().IntP("limit", "n", 0, "Maximum subscriptions per scan (0 scans all)")

	return cmd
}
