package bytecode

import (
	"errors"
	"log/slog"
	"strconv"
	"sync"
)

// ErrRegistryExhausted is returned when every candidate name for a unit is
// taken by a unit with a different signature or caching is disabled.
var ErrRegistryExhausted = errors.New("bytecode: unit registry exhausted")

// DefaultRegistry is the process-wide registry used by back ends created
// without WithRegistry.
var DefaultRegistry = NewRegistry(1024)

// Registry holds every loaded unit by name. Units are never removed.
type Registry struct {
	mu    sync.Mutex
	units map[string]unit
	limit int
}

type unit struct {
	signature string
	prog      any
}

// NewRegistry creates an empty registry which tries at most limit suffixes on
// a name collision before giving up.
func NewRegistry(limit int) *Registry {
	return &Registry{units: make(map[string]unit), limit: limit}
}

// Len returns the number of loaded units.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.units)
}

// Lookup returns the unit loaded under name.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[name]
	return u.prog, ok
}

// load registers the program built by mk under base or the first free
// suffixed variant of it. If reuse is true and a unit with the same signature
// and type is found first, that unit is returned instead.
func load[T any](r *Registry, base, sig string, reuse bool, log *slog.Logger, mk func(name string) *Program[T]) (*Program[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := 0; k <= r.limit; k++ {
		name := base
		if k > 0 {
			name += "_" + strconv.Itoa(k)
		}
		u, ok := r.units[name]
		if !ok {
			p := mk(name)
			r.units[name] = unit{signature: sig, prog: p}
			log.Debug("loaded unit", slog.String("unit", name))
			return p, nil
		}
		if reuse && u.signature == sig {
			if p, ok := u.prog.(*Program[T]); ok {
				log.Debug("reused unit", slog.String("unit", name))
				return p, nil
			}
		}
		log.Debug("unit name taken", slog.String("unit", name))
	}
	return nil, ErrRegistryExhausted
}
