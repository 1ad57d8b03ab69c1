// Package runerr defines the failure taxonomy of a reconcile run.
//
// Every fatal failure carries a Kind so callers can tell a run that failed
// before touching the cluster (missing config, render error) from one that
// failed after mutating it (apply, query). Delete failures are per-object
// and are recovered by the pruner.
package runerr

import (
	"errors"
	"fmt"
)

// Kind classifies a run failure.
type Kind int

const (
	// KindMissingConfig means a required flag or derived value is absent.
	KindMissingConfig Kind = iota + 1
	// KindRender means a template could not be resolved or produced malformed output.
	KindRender
	// KindApply means the cluster rejected the rendered manifest set.
	KindApply
	// KindQuery means the inventory query failed.
	KindQuery
	// KindDelete means deleting a single surplus object failed.
	KindDelete
)

// Phase is the run phase in which a failure of a given kind occurs.
type Phase string

const (
	PhaseRender Phase = "render"
	PhaseApply  Phase = "apply"
	PhasePrune  Phase = "prune"
)

func (k Kind) String() string {
	switch k {
	case KindMissingConfig:
		return "MissingConfig"
	case KindRender:
		return "RenderError"
	case KindApply:
		return "ApplyError"
	case KindQuery:
		return "QueryError"
	case KindDelete:
		return "DeleteError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Phase returns the phase a failure of this kind belongs to.
func (k Kind) Phase() Phase {
	switch k {
	case KindMissingConfig, KindRender:
		return PhaseRender
	case KindApply:
		return PhaseApply
	default:
		return PhasePrune
	}
}

// Error is a classified run failure.
type Error struct {
	Kind Kind
	// Key names the offending input: a flag key, template name, path or object identity.
	Key string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Key != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Key, e.Err)
	case e.Key != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Key)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindApply}) works
// without comparing keys.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Key == "" || t.Key == e.Key)
}

// MissingConfig reports an absent required flag.
func MissingConfig(key string) error {
	return &Error{Kind: KindMissingConfig, Key: key}
}

// MissingConfigErr reports a required input that is set but unusable, e.g. an unreadable file.
func MissingConfigErr(key string, err error) error {
	return &Error{Kind: KindMissingConfig, Key: key, Err: err}
}

// Render reports a template that could not be rendered.
func Render(template string, err error) error {
	return &Error{Kind: KindRender, Key: template, Err: err}
}

// Apply reports a failed apply of path.
func Apply(path string, err error) error {
	return &Error{Kind: KindApply, Key: path, Err: err}
}

// Query reports a failed inventory query.
func Query(err error) error {
	return &Error{Kind: KindQuery, Err: err}
}

// Delete reports a failed delete of one object.
func Delete(object string, err error) error {
	return &Error{Kind: KindDelete, Key: object, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// BeforeApply reports whether err aborted the run before any cluster mutation.
func BeforeApply(err error) bool {
	k, ok := KindOf(err)
	return ok && k.Phase() == PhaseRender
}
