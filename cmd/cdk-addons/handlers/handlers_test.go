package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/cdk-addons/internal/cluster"
	"github.com/imamik/cdk-addons/internal/config"
	"github.com/imamik/cdk-addons/internal/flags"
	"github.com/imamik/cdk-addons/internal/manifest"
	"github.com/imamik/cdk-addons/internal/metrics"
	"github.com/imamik/cdk-addons/internal/reconcile"
	"github.com/imamik/cdk-addons/internal/runerr"
	testutil "github.com/imamik/cdk-addons/internal/testing"
	"github.com/imamik/cdk-addons/internal/util/prerequisites"
)

// saveAndRestoreFactories saves all factory variables and restores them after the test.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origLoadSettings := loadSettings
	origNewFlagStore := newFlagStore
	origNewCluster := newCluster
	origNewEngine := newEngine
	origNewRecorder := newRecorder
	origCheckPrerequisites := checkPrerequisites
	origStdout := stdout
	origIsTerminal := isTerminal

	t.Cleanup(func() {
		loadSettings = origLoadSettings
		newFlagStore = origNewFlagStore
		newCluster = origNewCluster
		newEngine = origNewEngine
		newRecorder = origNewRecorder
		checkPrerequisites = origCheckPrerequisites
		stdout = origStdout
		isTerminal = origIsTerminal
	})
}

type fakeEngine struct {
	res   *reconcile.Result
	err   error
	runs  int
	plans int
}

func (f *fakeEngine) Run(context.Context) (*reconcile.Result, error) {
	f.runs++
	return f.res, f.err
}

func (f *fakeEngine) Plan(context.Context) (*reconcile.Result, error) {
	f.plans++
	return f.res, f.err
}

var (
	coreDNS   = manifest.NewIdentity("ConfigMap", "kube-system", "coredns")
	kubeDNS   = manifest.NewIdentity("Service", "kube-system", "kube-dns")
	dashboard = manifest.NewIdentity("Deployment", "kube-system", "kubernetes-dashboard")
)

func doneResult() *reconcile.Result {
	return &reconcile.Result{
		Phases:     []reconcile.Phase{reconcile.PhaseStart, reconcile.PhaseRendering, reconcile.PhaseApplying, reconcile.PhasePruning, reconcile.PhaseDone},
		Categories: []string{"core-dns"},
		Desired:    manifest.NewIdentitySet(coreDNS, kubeDNS),
		Actual:     manifest.NewIdentitySet(kubeDNS, dashboard),
		Surplus:    []manifest.Identity{dashboard},
		Deleted:    []manifest.Identity{dashboard},
		Applied:    true,
	}
}

// stubWiring replaces settings loading, the flag store and the cluster
// backend, and returns the engine every handler will drive.
func stubWiring(t *testing.T, s *config.Settings, store flags.Store, engine *fakeEngine) *string {
	t.Helper()
	saveAndRestoreFactories(t)

	var kubeconfig string
	loadSettings = func(string) (*config.Settings, error) { return s, nil }
	newFlagStore = func(string) flags.Store { return store }
	newCluster = func(_ *config.Settings, kc string) (cluster.Cluster, error) {
		kubeconfig = kc
		return testutil.NewFakeCluster(1), nil
	}
	newEngine = func(flags.Store, cluster.Cluster, *config.Settings) Engine { return engine }
	checkPrerequisites = func(context.Context, []prerequisites.Tool) *prerequisites.CheckResults {
		return &prerequisites.CheckResults{}
	}
	return &kubeconfig
}

func TestApply_Success(t *testing.T) {
	engine := &fakeEngine{res: doneResult()}
	stubWiring(t, config.Default(), flags.Static{}, engine)

	require.NoError(t, Apply(context.Background(), ""))
	assert.Equal(t, 1, engine.runs)
	assert.Zero(t, engine.plans)
}

func TestApply_DeleteFailuresDoNotFail(t *testing.T) {
	res := doneResult()
	res.Deleted = nil
	res.DeleteErr = runerr.Delete(dashboard.String(), errors.New("stuck"))
	stubWiring(t, config.Default(), flags.Static{}, &fakeEngine{res: res})

	assert.NoError(t, Apply(context.Background(), ""))
}

func TestApply_FailureBeforeApply(t *testing.T) {
	res := &reconcile.Result{Phases: []reconcile.Phase{reconcile.PhaseStart, reconcile.PhaseRendering, reconcile.PhaseFailed}}
	stubWiring(t, config.Default(), flags.Static{}, &fakeEngine{res: res, err: runerr.MissingConfig("ceph-admin-key")})

	err := Apply(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing was applied")
	assert.Contains(t, err.Error(), "ceph-admin-key")
	assert.True(t, runerr.IsKind(err, runerr.KindMissingConfig))
}

func TestApply_FailureAfterApply(t *testing.T) {
	res := &reconcile.Result{Phases: []reconcile.Phase{reconcile.PhaseStart, reconcile.PhaseRendering, reconcile.PhaseApplying, reconcile.PhasePruning, reconcile.PhaseFailed}}
	stubWiring(t, config.Default(), flags.Static{}, &fakeEngine{res: res, err: runerr.Query(errors.New("connection refused"))})

	err := Apply(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run failed during Pruning")
	assert.NotContains(t, err.Error(), "nothing was applied")
}

func TestApply_SettingsError(t *testing.T) {
	saveAndRestoreFactories(t)
	loadSettings = func(string) (*config.Settings, error) { return nil, errors.New("settings validation failed") }

	err := Apply(context.Background(), "bad.yaml")
	assert.EqualError(t, err, "settings validation failed")
}

func TestApply_BackendError(t *testing.T) {
	stubWiring(t, config.Default(), flags.Static{}, &fakeEngine{})
	newCluster = func(*config.Settings, string) (cluster.Cluster, error) {
		return nil, errors.New("no such file")
	}

	err := Apply(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create kubectl cluster backend")
}

func TestApply_MissingKubectl(t *testing.T) {
	engine := &fakeEngine{res: doneResult()}
	stubWiring(t, config.Default(), flags.Static{}, engine)
	checkPrerequisites = func(context.Context, []prerequisites.Tool) *prerequisites.CheckResults {
		return &prerequisites.CheckResults{Missing: []prerequisites.Tool{prerequisites.Kubectl("kubectl")}}
	}

	err := Apply(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required tools: kubectl")
	assert.Zero(t, engine.runs)
}

func TestApply_APIBackendSkipsKubectlCheck(t *testing.T) {
	s := config.Default()
	s.Backend = config.BackendAPI
	stubWiring(t, s, flags.Static{}, &fakeEngine{res: doneResult()})
	checkPrerequisites = func(context.Context, []prerequisites.Tool) *prerequisites.CheckResults {
		t.Fatal("kubectl must not be required with the api backend")
		return nil
	}

	assert.NoError(t, Apply(context.Background(), ""))
}

func TestApply_KubeconfigResolution(t *testing.T) {
	tests := []struct {
		name     string
		settings string
		flag     string
		want     string
	}{
		{"flag only", "", "/root/cdk/kubeconfig", "/root/cdk/kubeconfig"},
		{"settings win", "/etc/kubeconfig", "/root/cdk/kubeconfig", "/etc/kubeconfig"},
		{"neither", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.Default()
			s.Kubeconfig = tt.settings
			got := stubWiring(t, s, flags.Static{"kubeconfig": tt.flag}, &fakeEngine{res: doneResult()})

			require.NoError(t, Apply(context.Background(), ""))
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestApply_WritesMetrics(t *testing.T) {
	s := config.Default()
	s.MetricsTextfile = filepath.Join(t.TempDir(), "cdk_addons.prom")
	stubWiring(t, s, flags.Static{}, &fakeEngine{res: doneResult()})

	require.NoError(t, Apply(context.Background(), ""))
	data, err := os.ReadFile(s.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cdk_addons_runs_total{result="success"} 1`)
}

func TestApply_WritesMetricsOnFailure(t *testing.T) {
	s := config.Default()
	s.MetricsTextfile = filepath.Join(t.TempDir(), "cdk_addons.prom")
	res := &reconcile.Result{Phases: []reconcile.Phase{reconcile.PhaseStart, reconcile.PhaseRendering, reconcile.PhaseFailed}}
	stubWiring(t, s, flags.Static{}, &fakeEngine{res: res, err: runerr.Render("core-dns.yaml", errors.New("map has no entry for key"))})

	var recorder *metrics.Recorder
	newRecorder = func() *metrics.Recorder {
		recorder = metrics.NewRecorder()
		return recorder
	}

	require.Error(t, Apply(context.Background(), ""))
	require.NotNil(t, recorder)
	data, err := os.ReadFile(s.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cdk_addons_failures_total{kind="RenderError"} 1`)
}

func TestPlan_PlainOutput(t *testing.T) {
	engine := &fakeEngine{res: doneResult()}
	stubWiring(t, config.Default(), flags.Static{}, engine)
	var out bytes.Buffer
	stdout = &out
	isTerminal = func() bool { return false }

	require.NoError(t, Plan(context.Background(), ""))
	assert.Equal(t, 1, engine.plans)
	assert.Zero(t, engine.runs)
	assert.Equal(t,
		"create\tConfigMap kube-system/coredns\n"+
			"apply\tService kube-system/kube-dns\n"+
			"delete\tDeployment kube-system/kubernetes-dashboard\n",
		out.String())
}

func TestPlan_StyledOutput(t *testing.T) {
	stubWiring(t, config.Default(), flags.Static{}, &fakeEngine{res: doneResult()})
	var out bytes.Buffer
	stdout = &out
	isTerminal = func() bool { return true }

	require.NoError(t, Plan(context.Background(), ""))
	assert.Contains(t, out.String(), "cdk-addons plan")
	assert.Contains(t, out.String(), "Enabled: core-dns")
	assert.Contains(t, out.String(), "kube-system/kubernetes-dashboard")
}

func TestPlan_Failure(t *testing.T) {
	res := &reconcile.Result{Phases: []reconcile.Phase{reconcile.PhaseStart, reconcile.PhaseRendering, reconcile.PhaseFailed}}
	stubWiring(t, config.Default(), flags.Static{}, &fakeEngine{res: res, err: runerr.MissingConfig("dns-ip")})
	var out bytes.Buffer
	stdout = &out

	err := Plan(context.Background(), "")
	require.Error(t, err)
	assert.Empty(t, out.String())
}
