package manifest

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"
)

// DefaultNamespace is substituted for an absent namespace so that unnamespaced
// and default-namespaced objects compare equal.
const DefaultNamespace = "default"

// Identity is the (kind, namespace, name) triple of one cluster object.
// Only presence is compared; object content never is.
type Identity struct {
	Kind      string
	Namespace string
	Name      string
}

// NewIdentity builds a normalized Identity.
func NewIdentity(kind, namespace, name string) Identity {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return Identity{Kind: kind, Namespace: namespace, Name: name}
}

func (i Identity) String() string {
	return fmt.Sprintf("%s %s/%s", i.Kind, i.Namespace, i.Name)
}

// IdentitySet is a set of identities, used for both the desired and the actual set.
type IdentitySet = sets.Set[Identity]

// NewIdentitySet returns a set holding ids.
func NewIdentitySet(ids ...Identity) IdentitySet {
	return sets.New(ids...)
}

// Sorted returns the members of s ordered by kind, namespace, name.
func Sorted(s IdentitySet) []Identity {
	out := s.UnsortedList()
	sort.Slice(out, func(a, b int) bool {
		if out[a].Kind != out[b].Kind {
			return out[a].Kind < out[b].Kind
		}
		if out[a].Namespace != out[b].Namespace {
			return out[a].Namespace < out[b].Namespace
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// Surplus returns actual - desired in sorted order.
func Surplus(actual, desired IdentitySet) []Identity {
	return Sorted(actual.Difference(desired))
}
