package deps

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/depsync/pkg/observability"
)

// Resolver expands a scope's declared dependencies into a fully versioned,
// transitively closed set by consulting an ordered list of repositories.
//
// The first repository that matches a coordinate is used exclusively for it.
// Conflicts between transitive declarations are settled first-declared-wins:
// an identity already in the scope's set is never replaced or re-queued, so
// breadth-first order approximates nearest-wins.
type Resolver struct {
	repos []Repository
	opts  Options
}

// NewResolver creates a Resolver over repos in priority order.
func NewResolver(repos []Repository, opts Options) *Resolver {
	return &Resolver{repos: append([]Repository(nil), repos...), opts: opts.WithDefaults()}
}

// Repositories returns the repositories in priority order.
func (r *Resolver) Repositories() []Repository {
	return append([]Repository(nil), r.repos...)
}

// Repository returns the repository called name.
func (r *Resolver) Repository(name string) (Repository, bool) {
	for _, repo := range r.repos {
		if repo.Name() == name {
			return repo, true
		}
	}
	return nil, false
}

// Resolve expands declared for scope. The declared set is not modified;
// its local dependencies are carried over unchanged.
func (r *Resolver) Resolve(ctx context.Context, scope Scope, declared *DependencySet) (res *Resolution, err error) {
	start := time.Now()
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, scope.String(), declared.Len())
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Dependencies)
		}
		hooks.OnResolveComplete(ctx, scope.String(), n, time.Since(start), err)
	}()

	c := &crawler{
		ctx:   ctx,
		r:     r,
		scope: scope,
		out:   &Resolution{Scope: scope, Set: NewDependencySet()},
	}
	for _, l := range declared.Locals() {
		c.out.Set.IncludeLocal(l)
	}
	for _, d := range declared.Dependencies() {
		c.enqueue(job{dep: d})
	}
	if err := c.run(); err != nil {
		return nil, err
	}
	return c.out, nil
}

// Fetch downloads the artifact a through the repository that resolved it.
func (r *Resolver) Fetch(ctx context.Context, a RepositoryArtifact) ([]byte, error) {
	repo, ok := r.Repository(a.Repository)
	if !ok {
		return nil, &RepositoryError{Coordinate: a.Location, Repository: a.Repository, Err: ErrNotFound}
	}
	data, err := repo.Fetch(ctx, a)
	if err != nil {
		return nil, &RepositoryError{Coordinate: a.Location, Repository: a.Repository, Err: err}
	}
	return data, nil
}

type crawler struct {
	ctx   context.Context
	r     *Resolver
	scope Scope
	out   *Resolution
	queue []job
}

type job struct {
	dep    Dependency
	parent *Key
	depth  int
}

// enqueue adds j unless its identity is already in the set. An edge from the
// parent is recorded either way.
func (c *crawler) enqueue(j job) {
	if j.parent != nil {
		c.out.Edges = append(c.out.Edges, Edge{From: *j.parent, To: j.dep.Key()})
	}
	if c.out.Set.Include(j.dep) {
		c.queue = append(c.queue, j)
	}
}

func (c *crawler) run() error {
	for len(c.queue) > 0 {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		j := c.queue[0]
		c.queue = c.queue[1:]

		dep, artifact, children, err := c.r.resolveOne(c.ctx, c.scope, j.dep)
		if err != nil {
			return err
		}
		c.out.Set.Pin(dep)
		c.out.Dependencies = append(c.out.Dependencies, Resolved{Dependency: dep, Artifact: artifact, Depth: j.depth})
		c.r.opts.Logger("resolved %s from %s (%d dependencies)", dep, artifact.Repository, len(children))

		key := dep.Key()
		for _, child := range children {
			c.enqueue(job{dep: child, parent: &key, depth: j.depth + 1})
		}
	}
	return nil
}

// resolveOne finds the first repository matching dep, pinning a version
// through that repository when dep has none.
func (r *Resolver) resolveOne(ctx context.Context, scope Scope, dep Dependency) (Dependency, RepositoryArtifact, []Dependency, error) {
	coord := dep.String()
	for _, repo := range r.repos {
		pinned := dep
		if !dep.HasVersion() {
			v, err := repo.LatestVersion(ctx, dep.Group, dep.Artifact)
			if IsNotFound(err) {
				continue
			}
			if err != nil {
				return dep, RepositoryArtifact{}, nil, &RepositoryError{Coordinate: coord, Repository: repo.Name(), Err: err}
			}
			if v.IsZero() {
				return dep, RepositoryArtifact{}, nil, &VersionError{Coordinate: coord, Err: ErrNoVersion}
			}
			pinned = dep.WithVersion(v)
		}

		artifact, children, err := repo.Resolve(ctx, pinned, scope)
		if err != nil {
			// A version-less coordinate is matched by LatestVersion; the
			// repository that supplied the version must also hold it.
			if IsNotFound(err) && dep.HasVersion() {
				continue
			}
			return dep, RepositoryArtifact{}, nil, &RepositoryError{Coordinate: pinned.String(), Repository: repo.Name(), Err: err}
		}
		return pinned, artifact, children, nil
	}

	if !dep.HasVersion() {
		return dep, RepositoryArtifact{}, nil, &VersionError{Coordinate: coord, Err: ErrNoVersion}
	}
	return dep, RepositoryArtifact{}, nil, &RepositoryError{Coordinate: coord, Err: ErrNotFound}
}

// IsResolutionError reports whether err came from the resolver's taxonomy
// rather than from cancellation.
func IsResolutionError(err error) bool {
	var (
		pe *ParseError
		re *RepositoryError
		ve *VersionError
	)
	return errors.As(err, &pe) || errors.As(err, &re) || errors.As(err, &ve)
}
