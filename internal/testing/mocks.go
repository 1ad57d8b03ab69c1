package testing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/cdk-addons/internal/cluster"
	"github.com/imamik/cdk-addons/internal/manifest"
)

// MockCluster is a testify mock of cluster.Cluster.
type MockCluster struct {
	mock.Mock
}

var _ cluster.Cluster = (*MockCluster)(nil)

// Apply records the call.
func (m *MockCluster) Apply(ctx context.Context, req cluster.ApplyRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// Query returns the configured identity set.
func (m *MockCluster) Query(ctx context.Context, kinds []string, selector string) (manifest.IdentitySet, error) {
	args := m.Called(ctx, kinds, selector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(manifest.IdentitySet), args.Error(1)
}

// Delete records the call.
func (m *MockCluster) Delete(ctx context.Context, id manifest.Identity) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// NodeCount returns the configured node count.
func (m *MockCluster) NodeCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
