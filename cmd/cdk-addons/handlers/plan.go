package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// isTerminal reports whether stdout is a terminal.
var isTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Plan renders the desired set and reports what apply would create and
// delete, without mutating the cluster.
func Plan(ctx context.Context, configPath string) error {
	ctx, _ = withLogger(ctx, "plan")

	_, engine, err := setup(ctx, configPath)
	if err != nil {
		return err
	}

	res, err := engine.Plan(ctx)
	if err != nil {
		return runFailed(res, err)
	}

	if isTerminal() {
		_, err = fmt.Fprint(stdout, renderPlanSummary(res))
	} else {
		_, err = fmt.Fprint(stdout, renderPlanPlain(res))
	}
	return err
}
