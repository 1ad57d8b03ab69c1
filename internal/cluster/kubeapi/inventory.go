package kubeapi

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/imamik/cdk-addons/internal/manifest"
	"github.com/imamik/cdk-addons/internal/runerr"
)

// Query implements cluster.Cluster.
func (c *Client) Query(ctx context.Context, kinds []string, selector string) (manifest.IdentitySet, error) {
	set := manifest.NewIdentitySet()

	for _, kind := range kinds {
		gvr, err := c.mapper.ResourceFor(schema.GroupVersionResource{Resource: kind})
		if err != nil {
			return nil, runerr.Query(fmt.Errorf("unknown resource type %q: %w", kind, err))
		}

		list, err := c.dynamicClient.Resource(gvr).List(ctx, metav1.ListOptions{LabelSelector: selector})
		if err != nil {
			return nil, runerr.Query(fmt.Errorf("failed to list %s: %w", kind, err))
		}

		for _, item := range list.Items {
			gvk := item.GroupVersionKind()
			if _, known := c.lookup(gvk.Kind); !known {
				mapping, err := c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
				if err != nil {
					return nil, runerr.Query(fmt.Errorf("failed to get REST mapping for %v: %w", gvk, err))
				}
				c.remember(gvk.Kind, mapping)
			}
			set.Insert(manifest.NewIdentity(gvk.Kind, item.GetNamespace(), item.GetName()))
		}
	}
	return set, nil
}

// Delete implements cluster.Cluster. The delete propagates in the background
// and is not waited for.
func (c *Client) Delete(ctx context.Context, id manifest.Identity) error {
	mapping, ok := c.lookup(id.Kind)
	if !ok {
		return runerr.Delete(id.String(), fmt.Errorf("kind %s was not seen by the inventory query", id.Kind))
	}

	background := metav1.DeletePropagationBackground
	err := c.resourceFor(mapping, id.Namespace).Delete(ctx, id.Name, metav1.DeleteOptions{PropagationPolicy: &background})
	if err != nil {
		return runerr.Delete(id.String(), err)
	}
	return nil
}
