package testing

import (
	"maps"

	"github.com/imamik/cdk-addons/internal/flags"
)

// FlagsBuilder provides a fluent interface for constructing flag sets.
// Each method returns a new builder (immutable) for chaining.
type FlagsBuilder struct {
	values map[string]string
}

// NewFlagsBuilder creates a builder with the dns-ip flag set.
func NewFlagsBuilder() *FlagsBuilder {
	return &FlagsBuilder{values: map[string]string{"dns-ip": "10.152.183.10"}}
}

// With sets key to value.
func (b *FlagsBuilder) With(key, value string) *FlagsBuilder {
	n := b.clone()
	n.values[key] = value
	return n
}

// Without unsets key.
func (b *FlagsBuilder) Without(key string) *FlagsBuilder {
	n := b.clone()
	delete(n.values, key)
	return n
}

// Enable sets each key to "true".
func (b *FlagsBuilder) Enable(keys ...string) *FlagsBuilder {
	n := b.clone()
	for _, k := range keys {
		n.values[k] = "true"
	}
	return n
}

// Disable sets each key to "false".
func (b *FlagsBuilder) Disable(keys ...string) *FlagsBuilder {
	n := b.clone()
	for _, k := range keys {
		n.values[k] = "false"
	}
	return n
}

// WithDNSProvider selects the DNS provider.
func (b *FlagsBuilder) WithDNSProvider(name string) *FlagsBuilder {
	return b.With("dns-provider", name)
}

// WithCeph enables Ceph with every required key set.
func (b *FlagsBuilder) WithCeph() *FlagsBuilder {
	return b.Enable("enable-ceph").
		With("ceph-admin-key", "AQAadminkey==").
		With("ceph-kubernetes-key", "AQAk8skey==").
		With("ceph-mon-hosts", "10.0.0.1:6789,10.0.0.2:6789 10.0.0.3:6789").
		With("ceph-fsid", "6f1b0b6c-2c41-4b7a-9f1e-8d9c4c3a0b11")
}

// Build returns the flag set as a static store.
func (b *FlagsBuilder) Build() flags.Static {
	return flags.Static(maps.Clone(b.values))
}

func (b *FlagsBuilder) clone() *FlagsBuilder {
	return &FlagsBuilder{values: maps.Clone(b.values)}
}
