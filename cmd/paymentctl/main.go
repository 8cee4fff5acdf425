package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version = "dev"

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "paymentctl",
		Short:         "Operate the Makalah payment core",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to payment.yaml (env PAYMENTCTL_CONFIG or CONFIG_PATH)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level")
	v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	v.SetEnvPrefix("paymentctl")
	v.AutomaticEnv()

	rootCmd.AddCommand(reconcileCmd(v))
	rootCmd.AddCommand(providerCmd(v))
	rootCmd.AddCommand(paymentsCmd(v))
	rootCmd.AddCommand(subscriptionsCmd(v))

	return rootCmd
}
