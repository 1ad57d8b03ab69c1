package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kubectlList = `{
  "apiVersion": "v1",
  "kind": "List",
  "items": [
    {"apiVersion": "apps/v1", "kind": "Deployment", "metadata": {"name": "coredns", "namespace": "kube-system", "labels": {"cdk-addons": "true"}}},
    {"apiVersion": "storage.k8s.io/v1", "kind": "StorageClass", "metadata": {"name": "ceph-xfs", "labels": {"cdk-addons": "true"}}}
  ]
}`

func TestParseList(t *testing.T) {
	t.Parallel()

	set, err := ParseList([]byte(kubectlList))
	require.NoError(t, err)
	assert.Equal(t, NewIdentitySet(
		NewIdentity("Deployment", "kube-system", "coredns"),
		NewIdentity("StorageClass", "default", "ceph-xfs"),
	), set)
}

func TestParseList_Empty(t *testing.T) {
	t.Parallel()

	set, err := ParseList([]byte(`{"apiVersion": "v1", "kind": "List", "items": []}`))
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestParseList_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseList([]byte("error: the server doesn't have a resource type"))
	assert.ErrorContains(t, err, "failed to parse object list")
}

func TestCountItems(t *testing.T) {
	t.Parallel()

	n, err := CountItems([]byte(kubectlList))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = CountItems([]byte("{"))
	assert.Error(t, err)
}
