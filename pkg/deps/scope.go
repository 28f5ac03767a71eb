package deps

import (
	"fmt"
	"strings"
)

// Scope names the lifecycle stage a dependency applies to.
type Scope int

const (
	Compile Scope = iota
	Runtime
	Standalone
	Test

	scopeCount
)

var scopeNames = [scopeCount]string{"compile", "runtime", "standalone", "test"}

// Scopes lists every scope in layering order.
var Scopes = []Scope{Compile, Runtime, Standalone, Test}

func (s Scope) String() string {
	if s < 0 || s >= scopeCount {
		return fmt.Sprintf("scope(%d)", int(s))
	}
	return scopeNames[s]
}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool { return s >= 0 && s < scopeCount }

// ParseScope returns the scope named name (case-insensitive).
func ParseScope(name string) (Scope, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, sn := range scopeNames {
		if sn == n {
			return Scope(i), nil
		}
	}
	return 0, &ParseError{Input: name, Reason: "unknown scope (want compile, runtime, standalone or test)"}
}

// DependencySet is an ordered, identity-deduplicated collection of
// dependencies plus an ordered collection of local dependencies.
//
// The first dependency included for a [Key] wins; later includes of the same
// identity are no-ops whatever their version.
type DependencySet struct {
	deps   []Dependency
	index  map[Key]int
	locals []LocalDependency
	paths  map[string]bool
}

// NewDependencySet returns an empty set.
func NewDependencySet() *DependencySet {
	return &DependencySet{index: make(map[Key]int), paths: make(map[string]bool)}
}

// Include adds d unless a dependency with the same identity is already
// present. It reports whether d was added.
func (s *DependencySet) Include(d Dependency) bool {
	k := d.Key()
	if _, ok := s.index[k]; ok {
		return false
	}
	d.Type = d.typ()
	s.index[k] = len(s.deps)
	s.deps = append(s.deps, d)
	return true
}

// IncludeLocal adds a local dependency unless its path is already present.
func (s *DependencySet) IncludeLocal(l LocalDependency) bool {
	if s.paths[l.Path] {
		return false
	}
	s.paths[l.Path] = true
	s.locals = append(s.locals, l)
	return true
}

// Pin replaces the version of the dependency identified by d.Key(), keeping
// its position. It reports false when the identity is not in the set.
func (s *DependencySet) Pin(d Dependency) bool {
	i, ok := s.index[d.Key()]
	if !ok {
		return false
	}
	s.deps[i].Version = d.Version
	return true
}

// Get returns the dependency with identity k.
func (s *DependencySet) Get(k Key) (Dependency, bool) {
	if s == nil {
		return Dependency{}, false
	}
	i, ok := s.index[k]
	if !ok {
		return Dependency{}, false
	}
	return s.deps[i], true
}

// Contains reports whether a dependency with identity k is present.
func (s *DependencySet) Contains(k Key) bool {
	_, ok := s.Get(k)
	return ok
}

// Dependencies returns the dependencies in insertion order.
func (s *DependencySet) Dependencies() []Dependency {
	if s == nil {
		return nil
	}
	return append([]Dependency(nil), s.deps...)
}

// Locals returns the local dependencies in insertion order.
func (s *DependencySet) Locals() []LocalDependency {
	if s == nil {
		return nil
	}
	return append([]LocalDependency(nil), s.locals...)
}

// Len returns the number of repository dependencies in the set.
func (s *DependencySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.deps)
}

// Clone returns an independent copy of s.
func (s *DependencySet) Clone() *DependencySet {
	c := NewDependencySet()
	if s == nil {
		return c
	}
	for _, d := range s.deps {
		c.Include(d)
	}
	for _, l := range s.locals {
		c.IncludeLocal(l)
	}
	return c
}

// DependencyScopes maps each scope to its DependencySet. Sets are created
// on first use; an absent scope behaves as an empty set.
type DependencyScopes struct {
	sets [scopeCount]*DependencySet
}

// Scope returns the set for s, creating it if needed.
func (ds *DependencyScopes) Scope(s Scope) *DependencySet {
	if !s.Valid() {
		panic(fmt.Sprintf("deps: invalid scope %d", int(s)))
	}
	if ds.sets[s] == nil {
		ds.sets[s] = NewDependencySet()
	}
	return ds.sets[s]
}

// Get returns the set for s without creating it. The returned set may be
// nil; all DependencySet read methods accept a nil receiver.
func (ds *DependencyScopes) Get(s Scope) *DependencySet {
	if ds == nil || !s.Valid() {
		return nil
	}
	return ds.sets[s]
}

// Has reports whether s has any dependency or local dependency.
func (ds *DependencyScopes) Has(s Scope) bool {
	set := ds.Get(s)
	return set != nil && (len(set.deps) > 0 || len(set.locals) > 0)
}
