package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/cdk-addons/cmd/cdk-addons/handlers"
)

// Plan returns the dry-run command.
func Plan() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what apply would create and delete",
		Long: `Render the enabled add-ons and compare them with the owned objects in
the cluster without applying or deleting anything.

The working directory is still reset and rendered into.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to settings file")

	return cmd
}
