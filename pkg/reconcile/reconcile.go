// Package reconcile keeps a managed directory's archives equal to the
// resolution of a scope's declared dependencies.
//
// A [Reconciler] owns one directory and one state file. The state file
// holds the [Fingerprint] of the configuration the directory was last
// synchronized with. When the current configuration hashes to the stored
// value, [Reconciler.Sync] returns without touching the network or the
// directory. Otherwise it resolves the scope, deletes stale archives,
// fetches missing ones and finally records the new fingerprint.
//
// The fingerprint is only written after every step succeeded. A failed or
// cancelled sync therefore leaves the old (or no) state behind, and the
// next call repeats the full reconciliation.
//
// Files whose name starts with a reserved prefix are never listed, deleted
// or created by the reconciler.
package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/depsync/pkg/deps"
)

// Options configures a [Reconciler].
type Options struct {
	Force            bool                 // Ignore a matching fingerprint and always reconcile
	ReservedPrefixes []string             // File name prefixes the reconciler never touches
	Logger           func(string, ...any) // Debug progress callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Result describes a completed reconciliation.
type Result struct {
	Scope       deps.Scope
	Dir         string
	Fingerprint string
	FastPath    bool     // Fingerprint matched; nothing was resolved or changed
	Fetched     []string // File names written, in resolution order
	Deleted     []string // File names removed, sorted
	Kept        []string // Desired file names that were already present, sorted
	Shadowed    []string // Desired file names under a reserved prefix, sorted
}

// Reconciler synchronizes one managed directory.
type Reconciler struct {
	dir      string
	state    string
	resolver *deps.Resolver
	opts     Options
}

// New returns a Reconciler for dir that persists its fingerprint at state.
func New(dir, state string, resolver *deps.Resolver, opts Options) *Reconciler {
	return &Reconciler{dir: dir, state: state, resolver: resolver, opts: opts.WithDefaults()}
}

// Dir returns the managed directory.
func (r *Reconciler) Dir() string { return r.dir }

// StatePath returns the fingerprint file.
func (r *Reconciler) StatePath() string { return r.state }

// Synced reports whether the stored fingerprint matches the configuration.
// An unreadable state is reported as not synced.
func (r *Reconciler) Synced(scope deps.Scope, declared *deps.DependencySet) bool {
	stored, err := ReadState(r.state)
	return err == nil && stored != "" && stored == Fingerprint(scope, declared, r.resolver.Repositories())
}

// Sync brings the managed directory in line with the resolution of
// declared in scope.
func (r *Reconciler) Sync(ctx context.Context, scope deps.Scope, declared *deps.DependencySet) (*Result, error) {
	fp := Fingerprint(scope, declared, r.resolver.Repositories())
	result := &Result{Scope: scope, Dir: r.dir, Fingerprint: fp}

	if !r.opts.Force {
		stored, err := ReadState(r.state)
		if err != nil {
			r.opts.Logger("ignoring cache state: %v", err)
		}
		if err == nil && stored == fp {
			r.opts.Logger("%s: fingerprint %s unchanged", scope, short(fp))
			result.FastPath = true
			return result, nil
		}
	}

	res, err := r.resolver.Resolve(ctx, scope, declared)
	if err != nil {
		return nil, err
	}

	present, err := listFiles(r.dir, r.opts.ReservedPrefixes)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.dir, err)
	}
	plan := NewPlan(res, present, r.opts.ReservedPrefixes)
	result.Kept = plan.Keep
	result.Shadowed = plan.Shadowed
	for _, name := range plan.Shadowed {
		r.opts.Logger("%s: %s is reserved, not managed", scope, name)
	}
	r.opts.Logger("%s: fetch %d, delete %d, keep %d", scope, len(plan.Fetch), len(plan.Delete), len(plan.Keep))

	for _, name := range plan.Delete {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := os.Remove(filepath.Join(r.dir, name)); err != nil && !os.IsNotExist(err) {
			return result, fmt.Errorf("delete %s: %w", name, err)
		}
		result.Deleted = append(result.Deleted, name)
	}

	if len(plan.Fetch) > 0 {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return result, err
		}
	}
	for _, op := range plan.Fetch {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		r.opts.Logger("fetching %s", op.Artifact)
		data, err := r.resolver.Fetch(ctx, op.Artifact)
		if err != nil {
			return result, err
		}
		if err := writeFile(filepath.Join(r.dir, op.Name), data); err != nil {
			return result, fmt.Errorf("write %s: %w", op.Name, err)
		}
		result.Fetched = append(result.Fetched, op.Name)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if err := WriteState(r.state, fp); err != nil {
		return result, err
	}
	return result, nil
}

// Purge deletes every non-reserved file in the managed directory and the
// stored fingerprint. It returns the deleted file names.
func (r *Reconciler) Purge() ([]string, error) {
	// State goes first; a partial purge must never look synchronized.
	if err := RemoveState(r.state); err != nil {
		return nil, err
	}
	names, err := listFiles(r.dir, r.opts.ReservedPrefixes)
	if err != nil {
		return nil, err
	}
	var deleted []string
	for _, name := range names {
		if err := os.Remove(filepath.Join(r.dir, name)); err != nil && !os.IsNotExist(err) {
			return deleted, err
		}
		deleted = append(deleted, name)
	}
	return deleted, nil
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
