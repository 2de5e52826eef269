package types

import (
	"encoding/json"
	"sort"
	"strings"
)

// Bindings maps variable names to captured values.
//
// A Bindings value is never modified after creation: With returns a new
// value and leaves the receiver untouched, so a snapshot can be kept for
// diagnostics while matching continues. The zero value is empty.
type Bindings struct {
	vars map[string]string
}

// NewBindings creates a binding set holding a copy of vars.
func NewBindings(vars map[string]string) Bindings {
	if len(vars) == 0 {
		return Bindings{}
	}
	return Bindings{vars: copyVars(vars, 0)}
}

// Get returns the value bound to name.
func (b Bindings) Get(name string) (string, bool) {
	v, ok := b.vars[name]
	return v, ok
}

// Has reports whether name is bound.
func (b Bindings) Has(name string) bool {
	_, ok := b.vars[name]
	return ok
}

// With returns a copy of b with name bound to value.
func (b Bindings) With(name, value string) Bindings {
	vars := copyVars(b.vars, 1)
	vars[name] = value
	return Bindings{vars: vars}
}

// Len returns the number of bound variables.
func (b Bindings) Len() int { return len(b.vars) }

// Names returns the bound names in sorted order.
func (b Bindings) Names() []string {
	names := make([]string, 0, len(b.vars))
	for name := range b.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the bindings as a plain map.
func (b Bindings) Map() map[string]string {
	return copyVars(b.vars, 0)
}

func (b Bindings) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range b.Names() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteString(" = ")
		sb.WriteString(b.vars[name])
	}
	sb.WriteByte('}')
	return sb.String()
}

// MarshalJSON encodes the bindings as a JSON object.
func (b Bindings) MarshalJSON() ([]byte, error) {
	if b.vars == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b.vars)
}

func copyVars(vars map[string]string, extra int) map[string]string {
	res := make(map[string]string, len(vars)+extra)
	for k, v := range vars {
		res[k] = v
	}
	return res
}
