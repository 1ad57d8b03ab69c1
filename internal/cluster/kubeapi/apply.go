package kubeapi

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	k8slabels "k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/cdk-addons/internal/cluster"
	"github.com/imamik/cdk-addons/internal/manifest"
	"github.com/imamik/cdk-addons/internal/runerr"
	"github.com/imamik/cdk-addons/internal/util/labels"
)

// Apply implements cluster.Cluster. Every document under req.Path matching
// req.Selector is applied with server-side apply. Under PolicyReplace an
// object the server refuses to update is deleted and created again.
func (c *Client) Apply(ctx context.Context, req cluster.ApplyRequest) error {
	selector := k8slabels.Everything()
	switch req.Selector {
	case "":
	case labels.Selector():
		selector = labels.MatchSelector()
	default:
		parsed, err := k8slabels.Parse(req.Selector)
		if err != nil {
			return runerr.Apply(req.Path, fmt.Errorf("invalid selector %q: %w", req.Selector, err))
		}
		selector = parsed
	}

	files, err := manifestFiles(req.Path, req.Recursive)
	if err != nil {
		return runerr.Apply(req.Path, err)
	}

	logger := log.FromContext(ctx)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return runerr.Apply(file, fmt.Errorf("failed to read manifest: %w", err))
		}
		docs, err := manifest.Decode(data)
		if err != nil {
			return runerr.Apply(file, err)
		}
		for i := range docs {
			if !selector.Matches(k8slabels.Set(docs[i].GetLabels())) {
				continue
			}
			if err := c.applyObject(ctx, &docs[i].Unstructured, req.Policy); err != nil {
				return runerr.Apply(file, fmt.Errorf("failed to apply %s: %w", docs[i].Identity(), err))
			}
			logger.V(1).Info("applied object", "object", docs[i].Identity().String())
		}
	}
	return nil
}

// manifestFiles lists manifest files at path: the file itself, or the
// YAML/JSON files of a directory, descending only when recursive.
func manifestFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml", ".json":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}
	return files, nil
}

// applyObject applies a single unstructured object.
func (c *Client) applyObject(ctx context.Context, obj *unstructured.Unstructured, policy cluster.ApplyPolicy) error {
	gvk := obj.GroupVersionKind()
	mapping, err := c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return fmt.Errorf("failed to get REST mapping for %v: %w", gvk, err)
	}

	resource := c.resourceFor(mapping, obj.GetNamespace())

	data, err := obj.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal object to JSON: %w", err)
	}

	_, err = resource.Patch(ctx, obj.GetName(), types.ApplyPatchType, data, metav1.PatchOptions{
		FieldManager: FieldManager,
		Force:        ptr.To(true),
	})
	if err == nil {
		return nil
	}
	if policy != cluster.PolicyReplace || !(apierrors.IsInvalid(err) || apierrors.IsConflict(err)) {
		return fmt.Errorf("server-side apply failed: %w", err)
	}

	log.FromContext(ctx).Info("update refused, recreating object", "kind", obj.GetKind(), "name", obj.GetName(), "reason", err.Error())
	if err := resource.Delete(ctx, obj.GetName(), metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete for replace: %w", err)
	}
	if _, err := resource.Create(ctx, obj, metav1.CreateOptions{FieldManager: FieldManager}); err != nil {
		return fmt.Errorf("failed to recreate: %w", err)
	}
	return nil
}

// resourceFor returns the resource interface for mapping, scoped to namespace
// (or the default namespace) when the resource is namespaced.
func (c *Client) resourceFor(mapping *meta.RESTMapping, namespace string) dynamic.ResourceInterface {
	if mapping.Scope.Name() != meta.RESTScopeNameNamespace {
		return c.dynamicClient.Resource(mapping.Resource)
	}
	if namespace == "" {
		namespace = manifest.DefaultNamespace
	}
	return c.dynamicClient.Resource(mapping.Resource).Namespace(namespace)
}
