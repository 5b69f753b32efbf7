package mst

// SymbolTable assigns slots to variables in the order they are first seen.
// A table belongs to a single compilation; generated expressions keep only
// its Layout.
type SymbolTable[T any] struct {
	index    map[string]int
	names    []string
	defaults []*T
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable[T any]() *SymbolTable[T] {
	return &SymbolTable[T]{index: make(map[string]int)}
}

// Slot returns the slot of v, assigning the next one if v has not been seen.
func (s *SymbolTable[T]) Slot(v *Variable[T]) int {
	if k, ok := s.index[v.Name]; ok {
		return k
	}
	k := len(s.names)
	s.index[v.Name] = k
	s.names = append(s.names, v.Name)
	s.defaults = append(s.defaults, v.Default)
	return k
}

// Lookup returns the slot of a name, or -1 if it has none.
func (s *SymbolTable[T]) Lookup(name string) int {
	if k, ok := s.index[name]; ok {
		return k
	}
	return -1
}

// Len returns the number of slots.
func (s *SymbolTable[T]) Len() int {
	return len(s.names)
}

// Layout freezes the slot assignment.
func (s *SymbolTable[T]) Layout() Layout[T] {
	return Layout[T]{
		names:    append([]string(nil), s.names...),
		defaults: append([]*T(nil), s.defaults...),
	}
}

// Layout is the slot assignment of a generated expression: the symbol name in
// each slot and the value to use when the caller does not supply one.
type Layout[T any] struct {
	names    []string
	defaults []*T
}

// Names returns the symbol in each slot.
func (l Layout[T]) Names() []string {
	return append([]string(nil), l.names...)
}

// Len returns the number of slots.
func (l Layout[T]) Len() int {
	return len(l.names)
}

// FromMap arranges bindings into slot order.
func (l Layout[T]) FromMap(bindings map[string]T) ([]T, error) {
	args := make([]T, len(l.names))
	for k, name := range l.names {
		v, ok := bindings[name]
		if !ok {
			if l.defaults[k] == nil {
				return nil, &UnboundSymbolError{Name: name}
			}
			v = *l.defaults[k]
		}
		args[k] = v
	}
	return args, nil
}

// FromArgs completes positional arguments. Slots past the end of args use
// their defaults.
func (l Layout[T]) FromArgs(args []T) ([]T, error) {
	if len(args) > len(l.names) {
		return nil, &ArgumentCountError{Want: len(l.names), Got: len(args)}
	}
	if len(args) == len(l.names) {
		return args, nil
	}
	full := make([]T, len(l.names))
	copy(full, args)
	for k := len(args); k < len(l.names); k++ {
		if l.defaults[k] == nil {
			return nil, &UnboundSymbolError{Name: l.names[k]}
		}
		full[k] = *l.defaults[k]
	}
	return full, nil
}

// ToMap converts slot-ordered arguments to bindings.
func (l Layout[T]) ToMap(args []T) map[string]T {
	m := make(map[string]T, len(args))
	for k, v := range args {
		m[l.names[k]] = v
	}
	return m
}
