// Package cluster defines the operations the reconciler needs from the
// cluster: apply rendered manifests, list owned objects, delete one object
// and count nodes.
//
// Two backends implement it: the kubectl subpackage drives the kubectl CLI
// as a subprocess, kubeapi talks to the API server through client-go.
package cluster

import (
	"context"
	"fmt"

	"github.com/imamik/cdk-addons/internal/manifest"
)

// ApplyPolicy selects how apply resolves conflicts with live objects.
type ApplyPolicy string

const (
	// PolicyReplace deletes and recreates an object when an update conflicts
	// (kubectl apply --force).
	PolicyReplace ApplyPolicy = "replace"
	// PolicyServerSide merges with server-side apply, taking ownership of
	// conflicting fields (kubectl apply --server-side --force-conflicts).
	PolicyServerSide ApplyPolicy = "server-side"
)

// Validate checks that p is a known policy.
func (p ApplyPolicy) Validate() error {
	switch p {
	case PolicyReplace, PolicyServerSide:
		return nil
	default:
		return fmt.Errorf("unknown apply policy %q (must be %q or %q)", p, PolicyReplace, PolicyServerSide)
	}
}

// ApplyRequest describes one apply invocation.
type ApplyRequest struct {
	// Path is a manifest file or a directory of manifests.
	Path string
	// Selector restricts the apply to objects matching this label selector.
	Selector string
	// Recursive descends into subdirectories of Path.
	Recursive bool
	Policy    ApplyPolicy
}

// Cluster is the reconciler's view of the target cluster.
type Cluster interface {
	// Apply creates or updates the manifests at req.Path.
	Apply(ctx context.Context, req ApplyRequest) error

	// Query lists every object of the given resource kinds carrying the
	// selector's labels, across all namespaces.
	Query(ctx context.Context, kinds []string, selector string) (manifest.IdentitySet, error)

	// Delete removes one object without waiting for finalization.
	Delete(ctx context.Context, id manifest.Identity) error

	// NodeCount returns the number of nodes in the cluster.
	NodeCount(ctx context.Context) (int, error)
}

// DefaultKinds is the fixed list of resource kinds the inventory covers.
// Kinds are never discovered dynamically; an owned object of a kind missing
// here is never pruned.
var DefaultKinds = []string{
	"apiservices",
	"clusterrolebindings",
	"clusterroles",
	"configmaps",
	"csidrivers",
	"daemonsets",
	"deployments",
	"poddisruptionbudgets",
	"rolebindings",
	"roles",
	"secrets",
	"serviceaccounts",
	"services",
	"statefulsets",
	"storageclasses",
}
