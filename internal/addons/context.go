package addons

import (
	"context"

	"github.com/imamik/cdk-addons/internal/flags"
	"github.com/imamik/cdk-addons/internal/templates"
)

// NodeCounter reports the live node count of the cluster.
type NodeCounter interface {
	NodeCount(ctx context.Context) (int, error)
}

// baseBindings are resolved for every run, whatever the enabled categories.
var baseBindings = []Binding{
	{Flag: "arch", Key: "arch", Default: "amd64"},
	{Flag: "registry", Key: "registry"},
	{Flag: "dns-domain", Key: "dns_domain", Default: "cluster.local"},
	{Flag: "dns-ip", Key: "dns_ip"},
	{Flag: "dashboard-auth", Key: "dashboard_auth", Default: "token"},
	{Flag: "default-storage", Key: "default_storage", Default: "auto"},
}

// BaseContext builds the context shared by every category. It queries the
// cluster for the node count.
func BaseContext(ctx context.Context, store flags.Store, nodes NodeCounter) (templates.Context, error) {
	base := Category{Name: "base", Bindings: baseBindings}
	values, err := base.resolve(store, templates.Context{})
	if err != nil {
		return nil, err
	}

	numNodes, err := nodes.NodeCount(ctx)
	if err != nil {
		return nil, err
	}

	values["num_nodes"] = numNodes
	values["pillar"] = templates.Context{
		"dns_domain": values["dns_domain"],
		"num_nodes":  numNodes,
	}
	return values, nil
}
