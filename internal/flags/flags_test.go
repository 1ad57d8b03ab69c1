package flags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/cdk-addons/internal/runerr"
)

func writeFlag(t *testing.T, dir, key, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, key), []byte(value), 0o600))
}

func TestDirStore_Get(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFlag(t, dir, "dns-provider", "core-dns\n")
	writeFlag(t, dir, "ceph-admin-key", "   \n")

	store := NewDirStore(dir)

	v, err := store.Get("dns-provider", true)
	require.NoError(t, err)
	assert.Equal(t, "core-dns", v)

	v, err = store.Get("enable-dashboard", false)
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = store.Get("enable-dashboard", true)
	require.Error(t, err)
	assert.True(t, runerr.IsKind(err, runerr.KindMissingConfig))
	assert.Contains(t, err.Error(), "enable-dashboard")

	// whitespace-only counts as unset
	_, err = store.Get("ceph-admin-key", true)
	assert.True(t, runerr.IsKind(err, runerr.KindMissingConfig))
}

func TestDirStore_InvalidKey(t *testing.T) {
	t.Parallel()
	store := NewDirStore(t.TempDir())
	for _, key := range []string{"", "..", "../etc/passwd", `a\b`} {
		_, err := store.Get(key, false)
		assert.Error(t, err, key)
	}
}

func TestDirStore_ReadError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// a directory in place of a flag file cannot be read
	require.NoError(t, os.Mkdir(filepath.Join(dir, "arch"), 0o700))

	_, err := NewDirStore(dir).Get("arch", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read flag arch")
	assert.False(t, runerr.IsKind(err, runerr.KindMissingConfig))
}

func TestBool(t *testing.T) {
	t.Parallel()
	store := Static{"enable-gpu": "true", "enable-ceph": "True", "enable-aws": "false"}

	tests := []struct {
		key  string
		want bool
	}{
		{"enable-gpu", true},
		{"enable-ceph", false},
		{"enable-aws", false},
		{"enable-azure", false},
	}
	for _, tt := range tests {
		got, err := Bool(store, tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.key)
	}
}

func TestGetDefault(t *testing.T) {
	t.Parallel()
	store := Static{"arch": "arm64", "registry": " "}

	v, err := GetDefault(store, "arch", "amd64")
	require.NoError(t, err)
	assert.Equal(t, "arm64", v)

	v, err = GetDefault(store, "registry", "rocks.canonical.com/cdk")
	require.NoError(t, err)
	assert.Equal(t, "rocks.canonical.com/cdk", v)
}
