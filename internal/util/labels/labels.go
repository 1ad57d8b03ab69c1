// Package labels defines the ownership label that marks every object applied
// by cdk-addons.
//
// The label is the wire contract between runs: apply filters on it, and the
// pruner only ever lists and deletes objects that carry it.
package labels

import (
	k8slabels "k8s.io/apimachinery/pkg/labels"
)

const (
	// KeyOwner identifies objects managed by cdk-addons.
	KeyOwner = "cdk-addons"

	// ValueOwned is the only value of KeyOwner that marks ownership.
	ValueOwned = "true"
)

// Ownership returns a fresh copy of the ownership label set.
func Ownership() map[string]string {
	return map[string]string{KeyOwner: ValueOwned}
}

// Selector returns the label selector string matching owned objects ("cdk-addons=true").
func Selector() string {
	return k8slabels.Set(Ownership()).AsSelector().String()
}

// MatchSelector returns the parsed ownership selector.
func MatchSelector() k8slabels.Selector {
	return k8slabels.SelectorFromSet(Ownership())
}

// IsOwned reports whether a label map carries the ownership label.
func IsOwned(l map[string]string) bool {
	return l[KeyOwner] == ValueOwned
}

// WithOwnership returns a copy of existing with the ownership label set.
// Other labels are preserved; a nil input yields a map with only the ownership label.
func WithOwnership(existing map[string]string) map[string]string {
	result := make(map[string]string, len(existing)+1)
	for k, v := range existing {
		result[k] = v
	}
	result[KeyOwner] = ValueOwned
	return result
}
