package reconcile

import (
	"context"
	"time"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/observability"
)

// Target binds a scope to its managed directory and state file.
type Target struct {
	Scope deps.Scope
	Dir   string
	State string
}

// Syncer reconciles several scopes with one resolver.
type Syncer struct {
	resolver *deps.Resolver
	opts     Options
}

// NewSyncer returns a Syncer resolving through resolver.
func NewSyncer(resolver *deps.Resolver, opts Options) *Syncer {
	return &Syncer{resolver: resolver, opts: opts.WithDefaults()}
}

// Reconciler returns the reconciler of t.
func (s *Syncer) Reconciler(t Target) *Reconciler {
	return New(t.Dir, t.State, s.resolver, s.opts)
}

// Sync reconciles each target in order with the declarations of its scope
// and stops at the first failure. Results of completed targets are returned
// either way.
func (s *Syncer) Sync(ctx context.Context, scopes *deps.DependencyScopes, targets []Target) ([]*Result, error) {
	var results []*Result
	for _, t := range targets {
		res, err := s.SyncOne(ctx, scopes.Get(t.Scope), t)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// SyncOne reconciles a single target with declared and reports the outcome
// to the registered observability hooks.
func (s *Syncer) SyncOne(ctx context.Context, declared *deps.DependencySet, t Target) (*Result, error) {
	start := time.Now()
	res, err := s.Reconciler(t).Sync(ctx, t.Scope, declared)

	var stats observability.SyncStats
	if res != nil {
		stats = observability.SyncStats{
			FastPath: res.FastPath,
			Fetched:  len(res.Fetched),
			Deleted:  len(res.Deleted),
			Kept:     len(res.Kept),
		}
	}
	observability.Sync().OnSyncComplete(ctx, t.Scope.String(), stats, time.Since(start), err)
	return res, err
}

// Purge clears the managed directory and state of each target.
func (s *Syncer) Purge(targets []Target) (map[deps.Scope][]string, error) {
	out := make(map[deps.Scope][]string, len(targets))
	for _, t := range targets {
		deleted, err := s.Reconciler(t).Purge()
		out[t.Scope] = deleted
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
