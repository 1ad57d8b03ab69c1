package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyPolicy_Validate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, PolicyReplace.Validate())
	assert.NoError(t, PolicyServerSide.Validate())

	err := ApplyPolicy("merge").Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unknown apply policy "merge"`)
}

func TestDefaultKinds_Unique(t *testing.T) {
	t.Parallel()
	seen := map[string]bool{}
	for _, k := range DefaultKinds {
		assert.False(t, seen[k], "duplicate kind %s", k)
		seen[k] = true
	}
	assert.Contains(t, DefaultKinds, "deployments")
	assert.Contains(t, DefaultKinds, "storageclasses")
}
