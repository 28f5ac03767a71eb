package deps_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/deps/depstest"
)

func declare(coords ...string) *deps.DependencySet {
	s := deps.NewDependencySet()
	for _, c := range coords {
		s.Include(deps.MustParseDependency(c))
	}
	return s
}

func coords(res *deps.Resolution) []string {
	var out []string
	for _, d := range res.Dependencies {
		out = append(out, d.Dependency.String())
	}
	return out
}

func TestResolveBreadthFirstFirstDeclaredWins(t *testing.T) {
	repo := depstest.New("central").
		Add("g:a:1.0", "g:b:1.0", "g:c:1.0").
		Add("g:b:1.0", "g:d:1.0").
		Add("g:c:1.0", "g:d:2.0", "g:e:1.0").
		Add("g:d:1.0").
		Add("g:d:2.0").
		Add("g:e:1.0")

	r := deps.NewResolver([]deps.Repository{repo}, deps.Options{})
	res, err := r.Resolve(context.Background(), deps.Compile, declare("g:a:1.0"))
	require.NoError(t, err)

	require.Equal(t, []string{"g:a:1.0", "g:b:1.0", "g:c:1.0", "g:d:1.0", "g:e:1.0"}, coords(res))
	require.Equal(t, []string{"g+a+1.0.jar", "g+b+1.0.jar", "g+c+1.0.jar", "g+d+1.0.jar", "g+e+1.0.jar"}, res.FileNames())
	require.Len(t, res.Direct(), 1)

	d, ok := res.Set.Get(deps.MustParseDependency("g:d").Key())
	require.True(t, ok)
	require.Equal(t, "1.0", d.Version.String())

	c := deps.MustParseDependency("g:c").Key()
	require.Equal(t, []deps.Key{deps.MustParseDependency("g:d").Key(), deps.MustParseDependency("g:e").Key()}, res.Children(c))

	got, ok := res.Lookup(deps.MustParseDependency("g:e").Key())
	require.True(t, ok)
	require.Equal(t, 2, got.Depth)
}

func TestResolveDirectBeatsTransitive(t *testing.T) {
	repo := depstest.New("central").
		Add("g:a:1.0", "g:b:1.0").
		Add("g:b:1.0").
		Add("g:b:3.0")

	r := deps.NewResolver([]deps.Repository{repo}, deps.Options{})
	res, err := r.Resolve(context.Background(), deps.Compile, declare("g:a:1.0", "g:b:3.0"))
	require.NoError(t, err)
	require.Equal(t, []string{"g:a:1.0", "g:b:3.0"}, coords(res))
}

func TestResolveFirstRepositoryWins(t *testing.T) {
	first := depstest.New("first").Add("g:x:1.0", "g:y:1.0")
	second := depstest.New("second").Add("g:x:1.0").Add("g:y:1.0")

	r := deps.NewResolver([]deps.Repository{first, second}, deps.Options{})
	res, err := r.Resolve(context.Background(), deps.Runtime, declare("g:x:1.0"))
	require.NoError(t, err)

	require.Equal(t, []string{"g:x:1.0", "g:y:1.0"}, coords(res))
	require.Equal(t, "first", res.Dependencies[0].Artifact.Repository)
	require.Equal(t, "second", res.Dependencies[1].Artifact.Repository)
	require.Equal(t, 1, second.Calls.Resolve, "second repository consulted only for g:y")
}

func TestResolveLatestVersion(t *testing.T) {
	empty := depstest.New("empty")
	repo := depstest.New("central").Add("g:a:1.0").Add("g:a:1.2").Add("g:a:1.1").Add("g:a:1.2-rc1")

	r := deps.NewResolver([]deps.Repository{empty, repo}, deps.Options{})
	res, err := r.Resolve(context.Background(), deps.Compile, declare("g:a"))
	require.NoError(t, err)
	require.Equal(t, []string{"g:a:1.2"}, coords(res))
	require.Equal(t, "central", res.Dependencies[0].Artifact.Repository)
	require.Equal(t, 1, empty.Calls.LatestVersion)
	require.Equal(t, 0, empty.Calls.Resolve)
}

func TestResolveCycle(t *testing.T) {
	repo := depstest.New("central").
		Add("g:a:1.0", "g:b:1.0").
		Add("g:b:1.0", "g:a:1.0", "g:b:1.0")

	r := deps.NewResolver([]deps.Repository{repo}, deps.Options{})
	res, err := r.Resolve(context.Background(), deps.Compile, declare("g:a:1.0"))
	require.NoError(t, err)
	require.Equal(t, []string{"g:a:1.0", "g:b:1.0"}, coords(res))
	require.Equal(t, 2, repo.Calls.Resolve)
	require.Len(t, res.Edges, 3)
}

func TestResolveErrors(t *testing.T) {
	repo := depstest.New("central").Add("g:a:1.0", "g:missing:1.0")

	t.Run("not found", func(t *testing.T) {
		r := deps.NewResolver([]deps.Repository{repo}, deps.Options{})
		_, err := r.Resolve(context.Background(), deps.Compile, declare("g:a:1.0"))

		var re *deps.RepositoryError
		require.ErrorAs(t, err, &re)
		require.Equal(t, "g:missing:1.0", re.Coordinate)
		require.True(t, deps.IsNotFound(err))
		require.True(t, deps.IsResolutionError(err))
	})

	t.Run("no version", func(t *testing.T) {
		r := deps.NewResolver([]deps.Repository{repo}, deps.Options{})
		_, err := r.Resolve(context.Background(), deps.Compile, declare("g:unknown"))

		var ve *deps.VersionError
		require.ErrorAs(t, err, &ve)
		require.ErrorIs(t, err, deps.ErrNoVersion)
	})

	t.Run("no repositories", func(t *testing.T) {
		r := deps.NewResolver(nil, deps.Options{})
		_, err := r.Resolve(context.Background(), deps.Compile, declare("g:a:1.0"))

		var re *deps.RepositoryError
		require.ErrorAs(t, err, &re)
		require.Empty(t, re.Repository)
	})

	t.Run("transport failure is not skipped", func(t *testing.T) {
		boom := errors.New("connection reset")
		r := deps.NewResolver([]deps.Repository{failing{name: "flaky", err: boom}, repo}, deps.Options{})
		_, err := r.Resolve(context.Background(), deps.Compile, declare("g:a:1.0"))

		var re *deps.RepositoryError
		require.ErrorAs(t, err, &re)
		require.Equal(t, "flaky", re.Repository)
		require.ErrorIs(t, err, boom)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := deps.NewResolver([]deps.Repository{repo}, deps.Options{})
		_, err := r.Resolve(ctx, deps.Compile, declare("g:a:1.0"))
		require.ErrorIs(t, err, context.Canceled)
		require.False(t, deps.IsResolutionError(err))
	})
}

func TestResolveKeepsDeclaredSetAndLocals(t *testing.T) {
	repo := depstest.New("central").Add("g:a:1.0", "g:b:1.0").Add("g:b:1.0")
	declared := declare("g:a:1.0")
	declared.IncludeLocal(deps.NewLocalDependency("lib/extra.jar"))

	r := deps.NewResolver([]deps.Repository{repo}, deps.Options{})
	res, err := r.Resolve(context.Background(), deps.Test, declared)
	require.NoError(t, err)

	require.Equal(t, 1, declared.Len())
	require.Equal(t, 2, res.Set.Len())
	require.Equal(t, []deps.LocalDependency{{Path: "lib/extra.jar"}}, res.Set.Locals())
	require.Equal(t, deps.Test, res.Scope)
}

func TestResolverFetch(t *testing.T) {
	repo := depstest.New("central").Add("g:a:1.0")
	r := deps.NewResolver([]deps.Repository{repo}, deps.Options{})
	res, err := r.Resolve(context.Background(), deps.Compile, declare("g:a:1.0"))
	require.NoError(t, err)

	data, err := r.Fetch(context.Background(), res.Dependencies[0].Artifact)
	require.NoError(t, err)
	require.Equal(t, "contents of g:a:1.0", string(data))

	_, err = r.Fetch(context.Background(), deps.RepositoryArtifact{Repository: "gone", Location: "x"})
	require.True(t, deps.IsNotFound(err))
}

func TestRepositoryArtifactAppendPath(t *testing.T) {
	a := deps.RepositoryArtifact{Repository: "central", Location: "g/a/1.0/a-1.0.jar"}
	sha := a.AppendPath(".sha1")
	require.Equal(t, "g/a/1.0/a-1.0.jar.sha1", sha.Location)
	require.Equal(t, "g/a/1.0/a-1.0.jar", a.Location)
	require.Equal(t, "central", sha.Repository)
}

type failing struct {
	name string
	err  error
}

func (f failing) Name() string { return f.name }

func (f failing) Resolve(context.Context, deps.Dependency, deps.Scope) (deps.RepositoryArtifact, []deps.Dependency, error) {
	return deps.RepositoryArtifact{}, nil, f.err
}

func (f failing) LatestVersion(context.Context, string, string) (deps.Version, error) {
	return deps.Version{}, f.err
}

func (f failing) Fetch(context.Context, deps.RepositoryArtifact) ([]byte, error) {
	return nil, f.err
}
