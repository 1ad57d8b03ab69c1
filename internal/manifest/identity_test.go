package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIdentity_NormalizesNamespace(t *testing.T) {
	t.Parallel()
	assert.Equal(t, NewIdentity("StorageClass", "default", "ceph-xfs"), NewIdentity("StorageClass", "", "ceph-xfs"))
	assert.Equal(t, "StorageClass default/ceph-xfs", NewIdentity("StorageClass", "", "ceph-xfs").String())
}

func TestSurplus(t *testing.T) {
	t.Parallel()
	desired := NewIdentitySet(
		NewIdentity("Deployment", "kube-system", "coredns"),
		NewIdentity("Service", "kube-system", "kube-dns"),
	)
	actual := NewIdentitySet(
		NewIdentity("Service", "kube-system", "kube-dns"),
		NewIdentity("Deployment", "kube-system", "coredns"),
		NewIdentity("Service", "kube-system", "kubernetes-dashboard"),
		NewIdentity("Deployment", "kube-system", "kubernetes-dashboard"),
	)

	assert.Equal(t, []Identity{
		NewIdentity("Deployment", "kube-system", "kubernetes-dashboard"),
		NewIdentity("Service", "kube-system", "kubernetes-dashboard"),
	}, Surplus(actual, desired))

	assert.Empty(t, Surplus(desired, actual))
}
