// Package updates finds newer versions of a project's declared
// dependencies.
//
// Each declared coordinate is looked up in the first repository that knows
// it, the same repository the resolver would pick. Candidates are every
// listed version above the declared one; an optional semver constraint
// (e.g. "^1", "~2.3", ">=1.2 <2") narrows them:
//
//	c, err := updates.New(repos, updates.Options{Constraint: "^1"})
//	list, err := c.Check(ctx, scopes)
package updates

import (
	"context"
	"fmt"
	"sort"

	mm "github.com/Masterminds/semver/v3"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/repository"
)

// Options configures a Checker.
type Options struct {
	Constraint  string // Semver constraint candidates must satisfy (default: any)
	Prereleases bool   // Offer versions with a qualifier
}

// Update is a newer version available for a declared dependency.
type Update struct {
	Scope      deps.Scope
	Dependency deps.Dependency // As declared; may be version-less
	Latest     deps.Version
	Repository string
}

// Current returns the declared version text, or "-" for version-less
// declarations.
func (u Update) Current() string {
	if !u.Dependency.HasVersion() {
		return "-"
	}
	return u.Dependency.Version.String()
}

// Checker looks up update candidates.
type Checker struct {
	repos      []deps.Repository
	constraint *mm.Constraints
	opts       Options
}

// New returns a Checker over repos in priority order.
func New(repos []deps.Repository, opts Options) (*Checker, error) {
	c := &Checker{repos: append([]deps.Repository(nil), repos...), opts: opts}
	if opts.Constraint != "" {
		con, err := mm.NewConstraint(opts.Constraint)
		if err != nil {
			return nil, fmt.Errorf("parse constraint %q: %w", opts.Constraint, err)
		}
		c.constraint = con
	}
	return c, nil
}

// Check returns the available updates of every declared dependency, in
// scope then declaration order. A dependency declared in several scopes is
// reported once per scope.
func (c *Checker) Check(ctx context.Context, scopes *deps.DependencyScopes) ([]Update, error) {
	var out []Update
	for _, s := range deps.Scopes {
		for _, d := range scopes.Get(s).Dependencies() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			u, ok, err := c.Latest(ctx, d)
			if err != nil {
				return nil, err
			}
			if ok {
				u.Scope = s
				out = append(out, u)
			}
		}
	}
	return out, nil
}

// Latest returns the highest acceptable version of d above its declared
// version. The boolean is false when d is up to date or no repository
// knows it.
func (c *Checker) Latest(ctx context.Context, d deps.Dependency) (Update, bool, error) {
	for _, repo := range c.repos {
		vs, err := versions(ctx, repo, d)
		if deps.IsNotFound(err) {
			continue
		}
		if err != nil {
			return Update{}, false, &deps.RepositoryError{Coordinate: d.String(), Repository: repo.Name(), Err: err}
		}
		best, ok := c.pick(d, vs)
		if !ok {
			return Update{}, false, nil
		}
		return Update{Dependency: d, Latest: best, Repository: repo.Name()}, true, nil
	}
	return Update{}, false, nil
}

func (c *Checker) pick(d deps.Dependency, vs []deps.Version) (deps.Version, bool) {
	var candidates []deps.Version
	for _, v := range vs {
		if d.HasVersion() && v.Compare(d.Version) <= 0 {
			continue
		}
		if !c.opts.Prereleases && v.Qualifier() != "" && (!d.HasVersion() || d.Version.Qualifier() == "") {
			continue
		}
		if !c.satisfies(v) {
			continue
		}
		candidates = append(candidates, v)
	}
	return deps.MaxVersion(candidates)
}

// satisfies checks v against the constraint. Versions outside the semver
// grammar never satisfy a constraint.
func (c *Checker) satisfies(v deps.Version) bool {
	if c.constraint == nil {
		return true
	}
	sv, err := mm.NewVersion(v.String())
	if err != nil {
		return false
	}
	return c.constraint.Check(sv)
}

// versions lists the versions of d's artifact in repo. Repositories that
// cannot enumerate versions offer only their latest.
func versions(ctx context.Context, repo deps.Repository, d deps.Dependency) ([]deps.Version, error) {
	if l, ok := repo.(repository.VersionLister); ok {
		return l.Versions(ctx, d.Group, d.Artifact)
	}
	v, err := repo.LatestVersion(ctx, d.Group, d.Artifact)
	if err != nil {
		return nil, err
	}
	return []deps.Version{v}, nil
}

// Sort orders updates by scope, then coordinate.
func Sort(us []Update) {
	sort.SliceStable(us, func(i, j int) bool {
		if us[i].Scope != us[j].Scope {
			return us[i].Scope < us[j].Scope
		}
		return us[i].Dependency.String() < us[j].Dependency.String()
	})
}
