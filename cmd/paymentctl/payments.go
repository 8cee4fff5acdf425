package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func paymentsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Inspect payments",
	}
	cmd.AddCommand(paymentsStatsCmd(v))
	cmd.AddCommand(paymentsGetCmd(v))
	return cmd
}

func paymentsStatsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize payments by status, type and method",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Payments.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "total\t%d\n", stats.Total)
			fmt.Fprintf(w, "succeeded amount (IDR)\t%d\n", stats.SucceededIDR)
			fmt.Fprintf(w, "succeeded without entitlement\t%d\n", stats.UngrantedPaid)
			writeCounts(w, "status", stats.ByStatus)
			writeCounts(w, "type", stats.ByType)
			writeCounts(w, "method", stats.ByMethod)
			return w.Flush()
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

func paymentsGetCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "get [reference-id]",
		Short: "Print one payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			payment, err := a.Payments.GetByReferenceID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), payment)
		},
	}
}

func writeCounts(w *tabwriter.Writer, label string, counts map[string]int64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s %s\t%d\n", label, k, counts[k])
	}
}
