package reconcile

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/cdk-addons/internal/cluster"
	"github.com/imamik/cdk-addons/internal/manifest"
)

// prune deletes every surplus object. A failed delete is logged and the
// remaining deletes still run; failures are returned aggregated.
func prune(ctx context.Context, c cluster.Cluster, surplus []manifest.Identity) ([]manifest.Identity, error) {
	logger := log.FromContext(ctx)

	var deleted []manifest.Identity
	var result *multierror.Error
	for _, id := range surplus {
		if err := c.Delete(ctx, id); err != nil {
			logger.Error(err, "failed to delete surplus object", "object", id.String())
			result = multierror.Append(result, err)
			continue
		}
		logger.Info("deleted surplus object", "object", id.String())
		deleted = append(deleted, id)
	}
	return deleted, result.ErrorOrNil()
}
