package reconcile

import (
	"context"
	"fmt"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/cdk-addons/internal/addons"
	"github.com/imamik/cdk-addons/internal/cluster"
	"github.com/imamik/cdk-addons/internal/flags"
	"github.com/imamik/cdk-addons/internal/manifest"
	"github.com/imamik/cdk-addons/internal/runerr"
	"github.com/imamik/cdk-addons/internal/templates"
	"github.com/imamik/cdk-addons/internal/util/labels"
)

// Phase is a state of the run state machine.
type Phase string

const (
	PhaseStart     Phase = "Start"
	PhaseRendering Phase = "Rendering"
	PhaseApplying  Phase = "Applying"
	PhasePruning   Phase = "Pruning"
	PhaseDone      Phase = "Done"
	PhaseFailed    Phase = "Failed"
)

// Result describes a finished run.
type Result struct {
	// Phases lists every phase entered, in order.
	Phases []Phase
	// Categories are the enabled add-on categories.
	Categories []string
	Desired    manifest.IdentitySet
	Actual     manifest.IdentitySet
	// Surplus is actual - desired, sorted.
	Surplus []manifest.Identity
	// Deleted are the surplus objects whose delete succeeded.
	Deleted []manifest.Identity
	// DeleteErr aggregates per-object delete failures. It never fails the run.
	DeleteErr error
	// Applied reports whether the apply phase ran.
	Applied  bool
	DryRun   bool
	Duration time.Duration
}

// Final returns the last phase entered.
func (r *Result) Final() Phase {
	if len(r.Phases) == 0 {
		return PhaseStart
	}
	return r.Phases[len(r.Phases)-1]
}

func (r *Result) enter(p Phase) {
	r.Phases = append(r.Phases, p)
}

// Engine converges the cluster to the flag set.
type Engine struct {
	store    flags.Store
	cluster  cluster.Cluster
	renderer *templates.Renderer
	catalog  []addons.Category
	kinds    []string
	policy   cluster.ApplyPolicy
}

// Option configures an Engine.
type Option func(*Engine)

// WithKinds overrides the inventory kinds.
func WithKinds(kinds []string) Option {
	return func(e *Engine) {
		e.kinds = kinds
	}
}

// WithPolicy sets the apply policy.
func WithPolicy(p cluster.ApplyPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithCatalog overrides the add-on catalog.
func WithCatalog(c []addons.Category) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// New creates an engine. Defaults: cluster.DefaultKinds, PolicyReplace and
// the full add-on catalog.
func New(store flags.Store, c cluster.Cluster, renderer *templates.Renderer, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		cluster:  c,
		renderer: renderer,
		catalog:  addons.Catalog(),
		kinds:    cluster.DefaultKinds,
		policy:   cluster.PolicyReplace,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs one render, apply and prune pass. The returned Result is never
// nil, so callers can report on failed runs too.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	return e.run(ctx, false)
}

// Plan renders the desired set and diffs it against the inventory without
// applying or deleting anything.
func (e *Engine) Plan(ctx context.Context) (*Result, error) {
	return e.run(ctx, true)
}

func (e *Engine) run(ctx context.Context, dryRun bool) (*Result, error) {
	start := time.Now()
	logger := log.FromContext(ctx).WithValues("dryRun", dryRun)
	ctx = log.IntoContext(ctx, logger)

	res := &Result{DryRun: dryRun}
	res.enter(PhaseStart)
	defer func() {
		res.Duration = time.Since(start)
	}()

	fail := func(err error) (*Result, error) {
		logger.Error(err, "run failed", "phase", string(res.Final()))
		res.enter(PhaseFailed)
		return res, err
	}

	res.enter(PhaseRendering)
	desired, err := e.render(ctx)
	if err != nil {
		return fail(err)
	}
	res.Categories = desired.Categories
	res.Desired = desired.Identities
	logger.Info("rendered desired set", "categories", desired.Categories, "objects", desired.Identities.Len())

	if desired.Rendered && !dryRun {
		res.enter(PhaseApplying)
		if err := e.apply(ctx, desired); err != nil {
			return fail(err)
		}
		res.Applied = true
	}

	res.enter(PhasePruning)
	actual, err := e.cluster.Query(ctx, e.kinds, labels.Selector())
	if err != nil {
		return fail(err)
	}
	res.Actual = actual
	res.Surplus = manifest.Surplus(actual, desired.Identities)
	logger.Info("computed surplus", "actual", actual.Len(), "surplus", len(res.Surplus))

	if !dryRun {
		res.Deleted, res.DeleteErr = prune(ctx, e.cluster, res.Surplus)
	}

	res.enter(PhaseDone)
	return res, nil
}

func (e *Engine) render(ctx context.Context) (*addons.Desired, error) {
	if err := e.renderer.Reset(); err != nil {
		return nil, runerr.Render(e.renderer.WorkDir, err)
	}
	base, err := addons.BaseContext(ctx, e.store, e.cluster)
	if err != nil {
		return nil, err
	}
	return addons.NewBuilder(e.store, e.renderer).WithCatalog(e.catalog).Build(ctx, base)
}

// apply applies the DNS manifest alone first, then the whole working area.
func (e *Engine) apply(ctx context.Context, desired *addons.Desired) error {
	logger := log.FromContext(ctx)

	if desired.DNSManifest != "" {
		logger.Info("applying DNS manifest", "path", desired.DNSManifest)
		err := e.cluster.Apply(ctx, cluster.ApplyRequest{
			Path:     desired.DNSManifest,
			Selector: labels.Selector(),
			Policy:   e.policy,
		})
		if err != nil {
			return err
		}
	}

	logger.Info("applying rendered manifests", "path", e.renderer.WorkDir, "policy", string(e.policy))
	err := e.cluster.Apply(ctx, cluster.ApplyRequest{
		Path:      e.renderer.WorkDir,
		Selector:  labels.Selector(),
		Recursive: true,
		Policy:    e.policy,
	})
	if err != nil {
		return fmt.Errorf("bulk apply failed: %w", err)
	}
	return nil
}
