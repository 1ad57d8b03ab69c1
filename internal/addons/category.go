package addons

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/imamik/cdk-addons/internal/flags"
	"github.com/imamik/cdk-addons/internal/runerr"
	"github.com/imamik/cdk-addons/internal/templates"
)

// Category describes one add-on category.
type Category struct {
	Name string
	// Enabled reports whether the flags enable the category.
	Enabled func(flags.Store) (bool, error)
	// Bindings copy flag values into the category's template context.
	Bindings []Binding
	// Extend derives further context values after the bindings are resolved.
	Extend func(templates.Context) (templates.Context, error)
	// Templates are rendered in order.
	Templates []Template
	// DNS marks the DNS provider category; its manifest is applied first.
	DNS bool
}

// Binding maps a flag onto a context key.
type Binding struct {
	Flag     string
	Key      string
	Required bool
	// Default is used when an optional flag is unset.
	Default string
	// Load transforms a set value, e.g. reading the file it names.
	Load func(string) (string, error)
}

// Template is one template of a category.
type Template struct {
	Ref templates.Ref
	// StorageClass names the storage class the template renders. The
	// template context then carries sc_name and a default flag.
	StorageClass string
	// Vars are added to the context for this template only.
	Vars templates.Context
	// When, if set, must hold for the template to be rendered.
	When func(templates.Context) bool
}

func (b Binding) value(store flags.Store) (string, error) {
	if b.Required {
		return store.Get(b.Flag, true)
	}
	return flags.GetDefault(store, b.Flag, b.Default)
}

// resolve reads the category's bindings and returns base extended with them.
func (c *Category) resolve(store flags.Store, base templates.Context) (templates.Context, error) {
	values := templates.Context{}
	for _, b := range c.Bindings {
		v, err := b.value(store)
		if err != nil {
			return nil, err
		}
		if v != "" && b.Load != nil {
			loaded, err := b.Load(v)
			if err != nil {
				return nil, runerr.MissingConfigErr(b.Flag, err)
			}
			v = loaded
		}
		values[b.Key] = v
	}

	ctx := base.With(values)
	if c.Extend == nil {
		return ctx, nil
	}
	return c.Extend(ctx)
}

// contextFor returns the context a single template is rendered with.
func (t *Template) contextFor(ctx templates.Context) templates.Context {
	extra := t.Vars.Clone()
	if t.StorageClass != "" {
		selector, _ := ctx["default_storage"].(string)
		extra["sc_name"] = t.StorageClass
		extra["default"] = IsDefaultStorageClass(selector, t.StorageClass)
	}
	return ctx.With(extra)
}

// AutoDefaultStorageClass is the class made default by the "auto" selector.
const AutoDefaultStorageClass = "ceph-xfs"

// IsDefaultStorageClass reports whether class is the default storage class
// under selector. A selector naming a class marks only that class; "auto"
// marks AutoDefaultStorageClass.
func IsDefaultStorageClass(selector, class string) bool {
	if selector == "auto" {
		return class == AutoDefaultStorageClass
	}
	return selector == class
}

// flagEnabled enables a category when every key is "true".
func flagEnabled(keys ...string) func(flags.Store) (bool, error) {
	return func(s flags.Store) (bool, error) {
		for _, key := range keys {
			on, err := flags.Bool(s, key)
			if err != nil || !on {
				return false, err
			}
		}
		return true, nil
	}
}

// dnsProvider enables a category when dns-provider names it.
func dnsProvider(name string) func(flags.Store) (bool, error) {
	return func(s flags.Store) (bool, error) {
		v, err := s.Get("dns-provider", false)
		if err != nil {
			return false, err
		}
		return v == name, nil
	}
}

// base64File loads the file at path and returns its base64-encoded contents.
func base64File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// splitHosts splits a comma or whitespace separated host list.
func splitHosts(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
