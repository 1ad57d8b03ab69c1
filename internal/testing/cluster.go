package testing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"k8s.io/apimachinery/pkg/api/meta"
	k8slabels "k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/imamik/cdk-addons/internal/cluster"
	"github.com/imamik/cdk-addons/internal/manifest"
	"github.com/imamik/cdk-addons/internal/runerr"
	"github.com/imamik/cdk-addons/internal/util/labels"
)

// FakeCluster is an in-memory cluster. Apply reads the rendered manifests
// from disk and stores the objects they declare with their labels.
type FakeCluster struct {
	mu      sync.Mutex
	objects map[manifest.Identity]map[string]string
	nodes   int

	// ApplyErr, QueryErr and NodeErr fail the respective operation.
	ApplyErr error
	QueryErr error
	NodeErr  error
	// DeleteErrs fails the delete of specific objects.
	DeleteErrs map[manifest.Identity]error

	// Applies records every apply request, in order.
	Applies []cluster.ApplyRequest
	// Deletes records every attempted delete, in order.
	Deletes []manifest.Identity
	// Queries counts inventory queries.
	Queries int
}

var _ cluster.Cluster = (*FakeCluster)(nil)

// NewFakeCluster creates an empty cluster with the given node count.
func NewFakeCluster(nodes int) *FakeCluster {
	return &FakeCluster{
		objects:    map[manifest.Identity]map[string]string{},
		nodes:      nodes,
		DeleteErrs: map[manifest.Identity]error{},
	}
}

// AddOwned seeds objects carrying the ownership label.
func (f *FakeCluster) AddOwned(ids ...manifest.Identity) {
	for _, id := range ids {
		f.Add(id, labels.Ownership())
	}
}

// Add seeds one object with the given labels.
func (f *FakeCluster) Add(id manifest.Identity, l map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[manifest.NewIdentity(id.Kind, id.Namespace, id.Name)] = l
}

// Has reports whether the object exists.
func (f *FakeCluster) Has(id manifest.Identity) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[id]
	return ok
}

// Owned returns the identities of every object carrying the ownership label.
func (f *FakeCluster) Owned() manifest.IdentitySet {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := manifest.NewIdentitySet()
	for id, l := range f.objects {
		if labels.IsOwned(l) {
			set.Insert(id)
		}
	}
	return set
}

// ResetRecords clears the recorded applies, deletes and queries.
func (f *FakeCluster) ResetRecords() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Applies = nil
	f.Deletes = nil
	f.Queries = 0
}

// Apply implements cluster.Cluster.
func (f *FakeCluster) Apply(_ context.Context, req cluster.ApplyRequest) error {
	f.mu.Lock()
	f.Applies = append(f.Applies, req)
	f.mu.Unlock()
	if f.ApplyErr != nil {
		return runerr.Apply(req.Path, f.ApplyErr)
	}

	selector, err := k8slabels.Parse(req.Selector)
	if err != nil {
		return runerr.Apply(req.Path, err)
	}

	files, err := listFiles(req.Path, req.Recursive)
	if err != nil {
		return runerr.Apply(req.Path, err)
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return runerr.Apply(file, err)
		}
		docs, err := manifest.Decode(data)
		if err != nil {
			return runerr.Apply(file, err)
		}
		for i := range docs {
			if selector.Matches(k8slabels.Set(docs[i].GetLabels())) {
				f.Add(docs[i].Identity(), docs[i].GetLabels())
			}
		}
	}
	return nil
}

// Query implements cluster.Cluster.
func (f *FakeCluster) Query(_ context.Context, kinds []string, selector string) (manifest.IdentitySet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Queries++
	if f.QueryErr != nil {
		return nil, runerr.Query(f.QueryErr)
	}

	sel, err := k8slabels.Parse(selector)
	if err != nil {
		return nil, runerr.Query(err)
	}
	wanted := map[string]bool{}
	for _, k := range kinds {
		wanted[k] = true
	}

	set := manifest.NewIdentitySet()
	for id, l := range f.objects {
		if wanted[resourceOf(id.Kind)] && sel.Matches(k8slabels.Set(l)) {
			set.Insert(id)
		}
	}
	return set, nil
}

// Delete implements cluster.Cluster.
func (f *FakeCluster) Delete(_ context.Context, id manifest.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deletes = append(f.Deletes, id)
	if err := f.DeleteErrs[id]; err != nil {
		return runerr.Delete(id.String(), err)
	}
	if _, ok := f.objects[id]; !ok {
		return runerr.Delete(id.String(), errors.New("not found"))
	}
	delete(f.objects, id)
	return nil
}

// NodeCount implements cluster.Cluster.
func (f *FakeCluster) NodeCount(context.Context) (int, error) {
	if f.NodeErr != nil {
		return 0, runerr.Query(f.NodeErr)
	}
	return f.nodes, nil
}

// resourceOf returns the plural resource name of kind.
func resourceOf(kind string) string {
	plural, _ := meta.UnsafeGuessKindToResource(schema.GroupVersionKind{Kind: kind})
	return plural.Resource
}

func listFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
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
		if ext := strings.ToLower(filepath.Ext(p)); ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}
	return files, nil
}
