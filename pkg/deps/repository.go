package deps

import "context"

// Repository is a named source of artifacts. Remote indexes and local
// directories are both variants of this one capability set.
//
// Implementations report an unknown coordinate by returning an error that
// wraps [ErrNotFound]; any other error is treated as a transport failure and
// surfaced as-is. Implementations must not retry internally on behalf of the
// resolver.
type Repository interface {
	// Name identifies the repository in errors, logs and fingerprints.
	Name() string

	// Resolve locates the archive for dep, which always carries a concrete
	// version, and returns the further coordinates its descriptor declares
	// for the consuming scope.
	Resolve(ctx context.Context, dep Dependency, scope Scope) (RepositoryArtifact, []Dependency, error)

	// LatestVersion returns the highest available version of group:artifact.
	LatestVersion(ctx context.Context, group, artifact string) (Version, error)

	// Fetch returns the bytes stored at a location this repository returned.
	Fetch(ctx context.Context, a RepositoryArtifact) ([]byte, error)
}

// RepositoryArtifact identifies where a resolved artifact lives. It is a
// value; derived locations never alter the original.
type RepositoryArtifact struct {
	Repository string // Name of the repository that resolved the artifact
	Location   string // Repository-specific location (URL, path or object key)
}

// AppendPath returns a sibling location with suffix appended, for example the
// ".sha1" checksum side-file of an archive.
func (a RepositoryArtifact) AppendPath(suffix string) RepositoryArtifact {
	a.Location += suffix
	return a
}

func (a RepositoryArtifact) String() string {
	return a.Repository + ":" + a.Location
}
