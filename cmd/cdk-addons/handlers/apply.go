// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/cdk-addons/internal/cluster"
	"github.com/imamik/cdk-addons/internal/cluster/kubeapi"
	"github.com/imamik/cdk-addons/internal/cluster/kubectl"
	"github.com/imamik/cdk-addons/internal/config"
	"github.com/imamik/cdk-addons/internal/flags"
	"github.com/imamik/cdk-addons/internal/metrics"
	"github.com/imamik/cdk-addons/internal/reconcile"
	"github.com/imamik/cdk-addons/internal/runerr"
	"github.com/imamik/cdk-addons/internal/templates"
	"github.com/imamik/cdk-addons/internal/util/prerequisites"
)

// Engine is the reconcile surface the handlers drive. It matches
// reconcile.Engine.
type Engine interface {
	Run(ctx context.Context) (*reconcile.Result, error)
	Plan(ctx context.Context) (*reconcile.Result, error)
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadSettings loads the run settings.
	loadSettings = config.Load

	// newFlagStore opens the flag directory.
	newFlagStore = func(dir string) flags.Store {
		return flags.NewDirStore(dir)
	}

	// newCluster creates the cluster backend selected in the settings.
	newCluster = func(s *config.Settings, kubeconfig string) (cluster.Cluster, error) {
		if s.Backend == config.BackendAPI {
			return kubeapi.New(kubeconfig)
		}
		return kubectl.New(s.Kubectl,
			kubectl.WithKubeconfig(kubeconfig),
			kubectl.WithRetry(s.RetryConfig()),
		), nil
	}

	// newEngine creates the reconcile engine.
	newEngine = func(store flags.Store, c cluster.Cluster, s *config.Settings) Engine {
		return reconcile.New(store, c, templates.NewRenderer(s.TemplatesDir, s.WorkDir),
			reconcile.WithKinds(s.PruneKinds),
			reconcile.WithPolicy(s.ApplyPolicy),
		)
	}

	// checkPrerequisites looks up required client tools.
	checkPrerequisites = prerequisites.Check

	// newRecorder creates the metrics recorder.
	newRecorder = metrics.NewRecorder

	// stdout receives the plan summary.
	stdout io.Writer = os.Stdout
)

// Apply performs one render, apply and prune pass.
//
// The run fails, and the process exits non-zero, when a required flag is
// missing, a template cannot be rendered, the apply is rejected or the
// inventory query fails. Failed deletes of surplus objects are logged but do
// not fail the run.
func Apply(ctx context.Context, configPath string) error {
	ctx, logger := withLogger(ctx, "apply")

	settings, engine, err := setup(ctx, configPath)
	if err != nil {
		return err
	}

	res, err := engine.Run(ctx)
	recordMetrics(logger, settings, res, err)
	if err != nil {
		return runFailed(res, err)
	}

	logger.Info("run complete",
		"categories", res.Categories,
		"desired", res.Desired.Len(),
		"deleted", len(res.Deleted),
		"duration", res.Duration.String(),
	)
	if res.DeleteErr != nil {
		logger.Info("some surplus objects could not be deleted and will be retried on the next run",
			"failed", len(res.Surplus)-len(res.Deleted))
	}
	return nil
}

// setup loads settings and wires the flag store, cluster backend and engine.
func setup(ctx context.Context, configPath string) (*config.Settings, Engine, error) {
	settings, err := loadSettings(configPath)
	if err != nil {
		return nil, nil, err
	}

	if settings.Backend == config.BackendKubectl {
		results := checkPrerequisites(ctx, []prerequisites.Tool{prerequisites.Kubectl(settings.Kubectl)})
		if err := results.Error(); err != nil {
			return nil, nil, err
		}
		for _, r := range results.Results {
			log.FromContext(ctx).V(1).Info("found client tool", "path", r.Path, "version", r.Version)
		}
	}

	store := newFlagStore(settings.FlagsDir)
	kubeconfig, err := resolveKubeconfig(settings, store)
	if err != nil {
		return nil, nil, err
	}

	c, err := newCluster(settings, kubeconfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s cluster backend: %w", settings.Backend, err)
	}

	log.FromContext(ctx).V(1).Info("settings loaded",
		"flagsDir", settings.FlagsDir,
		"templatesDir", settings.TemplatesDir,
		"workDir", settings.WorkDir,
		"backend", string(settings.Backend),
		"applyPolicy", string(settings.ApplyPolicy),
	)
	return settings, newEngine(store, c, settings), nil
}

// resolveKubeconfig prefers the settings value over the kubeconfig flag.
func resolveKubeconfig(s *config.Settings, store flags.Store) (string, error) {
	if s.Kubeconfig != "" {
		return s.Kubeconfig, nil
	}
	return store.Get("kubeconfig", false)
}

func withLogger(ctx context.Context, command string) (context.Context, logr.Logger) {
	logger := log.FromContext(ctx).WithName("cdk-addons").WithValues("command", command)
	return log.IntoContext(ctx, logger), logger
}

// recordMetrics writes the run metrics when a textfile is configured. A
// failure to write them is logged only.
func recordMetrics(logger logr.Logger, s *config.Settings, res *reconcile.Result, runErr error) {
	if s.MetricsTextfile == "" {
		return
	}
	recorder := newRecorder()
	recorder.Observe(res, runErr)
	if err := recorder.WriteTextfile(s.MetricsTextfile); err != nil {
		logger.Error(err, "failed to write metrics")
	}
}

func runFailed(res *reconcile.Result, err error) error {
	phase := "unknown"
	if kind, ok := runerr.KindOf(err); ok {
		phase = string(kind.Phase())
	}
	if runerr.BeforeApply(err) {
		return fmt.Errorf("run failed during %s, nothing was applied: %w", phase, err)
	}
	if res != nil && len(res.Phases) > 1 {
		phase = string(res.Phases[len(res.Phases)-2])
	}
	return fmt.Errorf("run failed during %s: %w", phase, err)
}
