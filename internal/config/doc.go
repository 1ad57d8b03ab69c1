// Package config loads the run settings of cdk-addons: where flags,
// templates and the working area live, how the cluster is reached and how
// apply conflicts are resolved.
//
// Settings come from an optional YAML file, then environment overrides,
// then defaults for anything left unset. The add-on feature flags are not
// settings; they are read from the flag directory by package flags.
package config
