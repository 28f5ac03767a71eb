// Package depstest provides an in-memory [deps.Repository] for tests.
package depstest

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/depsync/pkg/deps"
)

// Calls counts the operations a Repository has served.
type Calls struct {
	Resolve       int
	LatestVersion int
	Fetch         int
}

// Total returns the number of operations of any kind.
func (c Calls) Total() int { return c.Resolve + c.LatestVersion + c.Fetch }

type entry struct {
	dep      deps.Dependency
	children []deps.Dependency
	data     []byte
}

// Repository is an in-memory repository. Artifacts are registered with
// [Repository.Add]; every served operation is counted in Calls.
type Repository struct {
	name      string
	entries   map[string]*entry // by location
	versions  map[string][]deps.Version
	fetchErrs map[string]error

	Calls Calls
}

// New returns an empty repository called name.
func New(name string) *Repository {
	return &Repository{
		name:      name,
		entries:   make(map[string]*entry),
		versions:  make(map[string][]deps.Version),
		fetchErrs: make(map[string]error),
	}
}

// Name returns the repository name.
func (r *Repository) Name() string { return r.name }

// Add registers the artifact coord, which must carry a version, declaring
// children as its descriptor entries. It panics on malformed coordinates.
func (r *Repository) Add(coord string, children ...string) *Repository {
	d := deps.MustParseDependency(coord)
	if !d.HasVersion() {
		panic("depstest: Add needs a versioned coordinate: " + coord)
	}
	e := &entry{dep: d, data: []byte("contents of " + d.String())}
	for _, c := range children {
		e.children = append(e.children, deps.MustParseDependency(c))
	}
	r.entries[r.location(d)] = e
	ga := d.Group + ":" + d.Artifact
	r.versions[ga] = append(r.versions[ga], d.Version)
	return r
}

// FailFetch makes Fetch of coord return err.
func (r *Repository) FailFetch(coord string, err error) {
	r.fetchErrs[r.location(deps.MustParseDependency(coord))] = err
}

// Reset zeroes the call counters.
func (r *Repository) Reset() { r.Calls = Calls{} }

// Resolve implements [deps.Repository].
func (r *Repository) Resolve(ctx context.Context, dep deps.Dependency, _ deps.Scope) (deps.RepositoryArtifact, []deps.Dependency, error) {
	r.Calls.Resolve++
	if err := ctx.Err(); err != nil {
		return deps.RepositoryArtifact{}, nil, err
	}
	loc := r.location(dep)
	e, ok := r.entries[loc]
	if !ok {
		return deps.RepositoryArtifact{}, nil, fmt.Errorf("%s: %w", dep, deps.ErrNotFound)
	}
	return deps.RepositoryArtifact{Repository: r.name, Location: loc}, append([]deps.Dependency(nil), e.children...), nil
}

// LatestVersion implements [deps.Repository].
func (r *Repository) LatestVersion(ctx context.Context, group, artifact string) (deps.Version, error) {
	r.Calls.LatestVersion++
	if err := ctx.Err(); err != nil {
		return deps.Version{}, err
	}
	v, ok := deps.MaxVersion(r.versions[group+":"+artifact])
	if !ok {
		return deps.Version{}, fmt.Errorf("%s:%s: %w", group, artifact, deps.ErrNotFound)
	}
	return v, nil
}

// Versions returns every registered version of group:artifact in
// registration order.
func (r *Repository) Versions(ctx context.Context, group, artifact string) ([]deps.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vs, ok := r.versions[group+":"+artifact]
	if !ok {
		return nil, fmt.Errorf("%s:%s: %w", group, artifact, deps.ErrNotFound)
	}
	return append([]deps.Version(nil), vs...), nil
}

// Fetch implements [deps.Repository].
func (r *Repository) Fetch(ctx context.Context, a deps.RepositoryArtifact) ([]byte, error) {
	r.Calls.Fetch++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.fetchErrs[a.Location]; err != nil {
		return nil, err
	}
	e, ok := r.entries[a.Location]
	if !ok {
		return nil, fmt.Errorf("%s: %w", a.Location, deps.ErrNotFound)
	}
	return append([]byte(nil), e.data...), nil
}

func (r *Repository) location(d deps.Dependency) string {
	return strings.ReplaceAll(d.Group, ".", "/") + "/" + d.Artifact + "/" + d.Version.String() + "/" + d.RepositoryFileName()
}

var _ deps.Repository = (*Repository)(nil)
