// SPDX-License-Identifier: MPL-2.0

package module

import "slices"

// Set is an insertion-ordered collection of modules keyed by name.
// The zero value is not usable; create one with NewSet.
type Set struct {
	order []string
	items map[string]Module
}

// NewSet creates an empty Set, optionally seeded with modules.
func NewSet(mods ...Module) *Set {
	s := &Set{items: make(map[string]Module, len(mods))}
	for _, m := range mods {
		s.Put(m)
	}
	return s
}

// Put adds m, replacing any module with the same name in place.
func (s *Set) Put(m Module) {
	if _, ok := s.items[m.Name]; !ok {
		s.order = append(s.order, m.Name)
	}
	s.items[m.Name] = m
}

// Get returns the module with the given name.
func (s *Set) Get(name string) (Module, bool) {
	m, ok := s.items[name]
	return m, ok
}

// Has reports whether a module with the given name is present.
func (s *Set) Has(name string) bool {
	_, ok := s.items[name]
	return ok
}

// Delete removes the module with the given name, if present.
func (s *Set) Delete(name string) {
	if _, ok := s.items[name]; !ok {
		return
	}
	delete(s.items, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
}

// Len returns the number of modules.
func (s *Set) Len() int { return len(s.order) }

// Names returns module names in insertion order.
func (s *Set) Names() []string { return slices.Clone(s.order) }

// All returns modules in insertion order.
func (s *Set) All() []Module {
	out := make([]Module, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.items[n])
	}
	return out
}

// OfKind returns the modules of the given kind in insertion order.
func (s *Set) OfKind(k Kind) []Module {
	var out []Module
	for _, n := range s.order {
		if m := s.items[n]; m.Kind == k {
			out = append(out, m)
		}
	}
	return out
}

// HasKind reports whether any module has one of the given kinds.
func (s *Set) HasKind(kinds ...Kind) bool {
	for _, m := range s.items {
		if slices.Contains(kinds, m.Kind) {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy that can be modified independently.
func (s *Set) Clone() *Set {
	c := &Set{order: slices.Clone(s.order), items: make(map[string]Module, len(s.items))}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}
