package manifest

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// ParseList parses the JSON object list printed by `kubectl get -o json`
// into identities. Items are taken as reported; label filtering is the
// query's job.
func ParseList(data []byte) (IdentitySet, error) {
	var list unstructured.UnstructuredList
	if err := list.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("failed to parse object list: %w", err)
	}

	set := NewIdentitySet()
	for _, item := range list.Items {
		set.Insert(NewIdentity(item.GetKind(), item.GetNamespace(), item.GetName()))
	}
	return set, nil
}

// CountItems returns the number of items in a `kubectl get -o json` list.
func CountItems(data []byte) (int, error) {
	var list unstructured.UnstructuredList
	if err := list.UnmarshalJSON(data); err != nil {
		return 0, fmt.Errorf("failed to parse object list: %w", err)
	}
	return len(list.Items), nil
}
