package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/cdk-addons/cmd/cdk-addons/handlers"
)

// Apply returns the command performing one render, apply and prune pass.
//
// Optional flags:
//
//	--config, -c: Path to a settings YAML file (default: built-in defaults)
func Apply() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Render, apply and prune the enabled add-ons",
		Long: `Render the add-ons enabled by the feature flags, apply them to the
cluster and delete every object labelled cdk-addons=true that is no longer
rendered.

A missing required flag or a template error aborts the run before anything
is applied. A failed delete is logged and retried on the next run.

Examples:
  # Run with the default settings
  cdk-addons apply

  # Run with a settings file
  cdk-addons apply -c /etc/cdk-addons/settings.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to settings file")

	return cmd
}
