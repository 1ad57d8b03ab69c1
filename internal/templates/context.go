package templates

// Context is the value set a template is executed against. Values are strings,
// booleans, numbers, lists or nested Contexts.
//
// A Context is treated as immutable once built: Clone and With return copies.
type Context map[string]any

// Clone returns a deep copy of c.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

// With returns a copy of c extended with extra. Keys in extra win.
func (c Context) With(extra Context) Context {
	out := c.Clone()
	for k, v := range extra {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Context:
		return t.Clone()
	case map[string]any:
		return map[string]any(Context(t).Clone())
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
