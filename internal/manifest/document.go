// Package manifest parses rendered add-on manifests and models the identities
// used to compare desired and live state.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/yaml"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/imamik/cdk-addons/internal/util/labels"
)

// Document is one parsed manifest object.
type Document struct {
	unstructured.Unstructured
}

// Identity returns the normalized identity of the document.
func (d *Document) Identity() Identity {
	return NewIdentity(d.GetKind(), d.GetNamespace(), d.GetName())
}

// EnsureOwnership sets the ownership label, preserving any other labels.
// A label with a non-string value is rejected rather than dropped.
func (d *Document) EnsureOwnership() error {
	existing := map[string]string{}
	raw, found, err := unstructured.NestedFieldNoCopy(d.Object, "metadata", "labels")
	if err != nil {
		return fmt.Errorf("%s: failed to read labels: %w", d.Identity(), err)
	}
	if found && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: metadata.labels is %T, not a map", d.Identity(), raw)
		}
		for key, value := range m {
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("%s: label %q has non-string value %v", d.Identity(), key, value)
			}
			existing[key] = s
		}
	}
	d.SetLabels(labels.WithOwnership(existing))
	return nil
}

// Owned reports whether the document carries the ownership label.
func (d *Document) Owned() bool {
	return labels.IsOwned(d.GetLabels())
}

// Decode parses multi-document YAML or JSON. Empty documents are skipped.
// A document without kind or metadata.name is rejected.
func Decode(data []byte) ([]Document, error) {
	decoder := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 4096)

	var docs []Document
	for index := 0; ; index++ {
		var obj map[string]any
		if err := decoder.Decode(&obj); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode document %d: %w", index, err)
		}
		if len(obj) == 0 {
			continue
		}

		doc := Document{Unstructured: unstructured.Unstructured{Object: obj}}
		if doc.GetKind() == "" {
			return nil, fmt.Errorf("document %d has no kind", index)
		}
		if doc.GetName() == "" {
			return nil, fmt.Errorf("document %d (%s) has no metadata.name", index, doc.GetKind())
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Encode serializes documents as multi-document YAML.
func Encode(docs []Document) ([]byte, error) {
	var buf bytes.Buffer
	for i := range docs {
		out, err := sigsyaml.Marshal(docs[i].Object)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", docs[i].Identity(), err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}

// Identities collects the identities of docs.
func Identities(docs []Document) IdentitySet {
	set := NewIdentitySet()
	for i := range docs {
		set.Insert(docs[i].Identity())
	}
	return set
}
