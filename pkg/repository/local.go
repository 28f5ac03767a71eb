package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matzehuels/depsync/pkg/deps"
)

// Local is a Maven-layout repository rooted at a directory, such as
// ~/.m2/repository.
type Local struct {
	name string
	root string
	poms *descriptors
}

// NewLocal creates a local repository called name rooted at root.
func NewLocal(name, root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	l := &Local{name: name, root: abs}
	poms, err := newDescriptors(l.get)
	if err != nil {
		return nil, err
	}
	l.poms = poms
	return l, nil
}

// Name returns the repository name.
func (l *Local) Name() string { return l.name }

// Root returns the absolute repository directory.
func (l *Local) Root() string { return l.root }

// Identity returns the repository root as a file URL.
func (l *Local) Identity() string { return "file://" + filepath.ToSlash(l.root) }

// Resolve locates dep's archive on disk and returns its descriptor entries
// for scope. The artifact location is an absolute file path.
func (l *Local) Resolve(ctx context.Context, dep deps.Dependency, scope deps.Scope) (deps.RepositoryArtifact, []deps.Dependency, error) {
	if err := ctx.Err(); err != nil {
		return deps.RepositoryArtifact{}, nil, err
	}
	path := l.file(ArchivePath(dep))
	artifact := deps.RepositoryArtifact{Repository: l.name, Location: path}

	pom, err := l.poms.load(ctx, dep.Group, dep.Artifact, dep.Version.String(), 0)
	if deps.IsNotFound(err) {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return deps.RepositoryArtifact{}, nil, fmt.Errorf("%s: %w", path, deps.ErrNotFound)
			}
			return deps.RepositoryArtifact{}, nil, err
		}
		return artifact, nil, nil
	}
	if err != nil {
		return deps.RepositoryArtifact{}, nil, err
	}
	return artifact, pom.children(scope), nil
}

// Versions lists the version directories of group:artifact. Directory
// names outside the version grammar are ignored.
func (l *Local) Versions(ctx context.Context, group, artifact string) ([]deps.Version, error) {
	dir := l.file(ArtifactDir(group, artifact))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, deps.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var out []deps.Version
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if v, err := deps.ParseVersion(e.Name()); err == nil {
			out = append(out, v)
		}
	}
	return out, nil
}

// LatestVersion returns the highest version directory of group:artifact.
func (l *Local) LatestVersion(ctx context.Context, group, artifact string) (deps.Version, error) {
	vs, err := l.Versions(ctx, group, artifact)
	if err != nil {
		return deps.Version{}, err
	}
	v, ok := deps.MaxVersion(vs)
	if !ok {
		return deps.Version{}, fmt.Errorf("%s:%s has no versions in %s: %w", group, artifact, l.root, deps.ErrNotFound)
	}
	return v, nil
}

// Fetch reads the archive file.
func (l *Local) Fetch(ctx context.Context, a deps.RepositoryArtifact) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.Location)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", a.Location, deps.ErrNotFound)
	}
	return data, err
}

func (l *Local) get(_ context.Context, rel string) ([]byte, error) {
	path := l.file(rel)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, deps.ErrNotFound)
	}
	return data, err
}

func (l *Local) file(rel string) string {
	return filepath.Join(l.root, filepath.FromSlash(rel))
}

var (
	_ deps.Repository = (*Local)(nil)
	_ VersionLister   = (*Local)(nil)
)
