// Package main is the entry point for the cdk-addons CLI.
//
// cdk-addons converges the optional add-ons of a cluster (DNS, dashboard,
// metrics server, storage provisioners, cloud integrations) to the feature
// flags captured in its flag directory. Each invocation renders the enabled
// add-ons, applies them and prunes owned objects that are no longer enabled,
// then exits.
//
// Commands: apply, plan, version.
//
// For detailed usage information, run:
//
//	cdk-addons --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/cdk-addons/cmd/cdk-addons/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
