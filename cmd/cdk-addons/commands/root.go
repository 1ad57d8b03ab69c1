// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing
// and flag binding. Command execution is delegated to handler functions in the
// handlers package.
package commands

import (
	"github.com/spf13/cobra"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Root returns the root command for the cdk-addons CLI.
func Root() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:           "cdk-addons",
		Short:         "Converge cluster add-ons to the configured feature flags",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logf.SetLogger(zap.New(zap.UseDevMode(debug)))
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(Apply())
	cmd.AddCommand(Plan())
	cmd.AddCommand(Version())

	return cmd
}
