// Package testing provides test doubles, builders and fixtures shared by the
// reconciler's unit tests:
//   - FakeCluster: in-memory cluster that applies rendered files and tracks labels
//   - MockCluster: testify mock of cluster.Cluster for call assertions
//   - FlagsBuilder: fluent builder for flag sets
//   - CatalogLibrary: stub template library covering an add-on catalog
//
// Usage:
//
//	store := testing.NewFlagsBuilder().
//	    WithDNSProvider("core-dns").
//	    Enable("enable-metrics").
//	    Build()
//
//	fake := testing.NewFakeCluster(3)
package testing
