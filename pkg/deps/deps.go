package deps

// Options configures dependency resolution behavior.
type Options struct {
	Logger func(string, ...any) // Debug progress callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Resolved is a dependency pinned to a concrete version together with the
// location it was resolved to.
type Resolved struct {
	Dependency Dependency
	Artifact   RepositoryArtifact
	Depth      int // 0 for direct declarations
}

// Edge records that From's descriptor declared To.
type Edge struct {
	From Key
	To   Key
}

// Resolution is the outcome of resolving one scope.
type Resolution struct {
	Scope        Scope
	Set          *DependencySet // Direct and transitive dependencies, versions pinned
	Dependencies []Resolved     // Breadth-first discovery order
	Edges        []Edge
}

// FileNames returns the canonical file name of every resolved dependency,
// in resolution order.
func (r *Resolution) FileNames() []string {
	names := make([]string, 0, len(r.Dependencies))
	for _, d := range r.Dependencies {
		names = append(names, d.Dependency.FileName())
	}
	return names
}

// Direct returns the dependencies declared directly in the scope.
func (r *Resolution) Direct() []Resolved {
	var out []Resolved
	for _, d := range r.Dependencies {
		if d.Depth == 0 {
			out = append(out, d)
		}
	}
	return out
}

// Children returns the keys declared by k's descriptor, in declaration order.
func (r *Resolution) Children(k Key) []Key {
	var out []Key
	for _, e := range r.Edges {
		if e.From == k {
			out = append(out, e.To)
		}
	}
	return out
}

// Lookup returns the resolved entry for k.
func (r *Resolution) Lookup(k Key) (Resolved, bool) {
	for _, d := range r.Dependencies {
		if d.Dependency.Key() == k {
			return d, true
		}
	}
	return Resolved{}, false
}
