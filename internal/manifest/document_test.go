package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coreDNS = `apiVersion: v1
kind: ServiceAccount
metadata:
  name: coredns
  namespace: kube-system
---
# comment-only document
---
apiVersion: v1
kind: Service
metadata:
  name: kube-dns
  namespace: kube-system
  labels:
    k8s-app: kube-dns
spec:
  clusterIP: 10.152.183.10
  ports:
  - name: dns
    port: 53
    protocol: UDP
---
apiVersion: rbac.authorization.k8s.io/v1
kind: ClusterRole
metadata:
  name: system:coredns
`

func TestDecode_MultiDocument(t *testing.T) {
	t.Parallel()
	docs, err := Decode([]byte(coreDNS))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, NewIdentity("ServiceAccount", "kube-system", "coredns"), docs[0].Identity())
	assert.Equal(t, NewIdentity("Service", "kube-system", "kube-dns"), docs[1].Identity())
	assert.Equal(t, Identity{Kind: "ClusterRole", Namespace: "default", Name: "system:coredns"}, docs[2].Identity())
}

func TestDecode_Rejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		input       string
		errContains string
	}{
		{"no kind", "apiVersion: v1\nmetadata:\n  name: x\n", "has no kind"},
		{"no name", "apiVersion: v1\nkind: ConfigMap\nmetadata: {}\n", "has no metadata.name"},
		{"invalid yaml", "{invalid yaml: [", "failed to decode document 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	t.Parallel()
	docs, err := Decode([]byte("---\n---\n"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestEnsureOwnership_PreservesLabels(t *testing.T) {
	t.Parallel()
	docs, err := Decode([]byte(coreDNS))
	require.NoError(t, err)

	for i := range docs {
		assert.False(t, docs[i].Owned())
		require.NoError(t, docs[i].EnsureOwnership())
		assert.True(t, docs[i].Owned())
	}
	assert.Equal(t, "kube-dns", docs[1].GetLabels()["k8s-app"])
	assert.Equal(t, "true", docs[1].GetLabels()["cdk-addons"])
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()
	docs, err := Decode([]byte(coreDNS))
	require.NoError(t, err)
	for i := range docs {
		require.NoError(t, docs[i].EnsureOwnership())
	}

	out, err := Encode(docs)
	require.NoError(t, err)
	assert.Contains(t, string(out), "cdk-addons: \"true\"")
	assert.Contains(t, string(out), "port: 53")

	again, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, Identities(docs), Identities(again))
}

func TestEnsureOwnership_RejectsNonStringLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		input       string
		errContains string
	}{
		{
			name:        "numeric value",
			input:       "apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: dns\n  labels:\n    app: dns\n    tier: 1\n",
			errContains: `label "tier" has non-string value 1`,
		},
		{
			name:        "labels not a map",
			input:       "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: cfg\n  labels: [app]\n",
			errContains: "metadata.labels",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			docs, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			require.Len(t, docs, 1)

			err = docs[0].EnsureOwnership()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestEnsureOwnership_NoLabels(t *testing.T) {
	t.Parallel()
	docs, err := Decode([]byte("apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: cfg\n"))
	require.NoError(t, err)

	require.NoError(t, docs[0].EnsureOwnership())
	assert.Equal(t, map[string]string{"cdk-addons": "true"}, docs[0].GetLabels())
}
