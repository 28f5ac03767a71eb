package repository

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/transport"
)

// ErrChecksum is returned by Fetch when an archive does not match its
// published .sha1 side-file.
var ErrChecksum = errors.New("checksum mismatch")

// RemoteOptions configures a [Remote] repository.
type RemoteOptions struct {
	VerifyChecksums bool // Compare fetched archives against their .sha1 side-file when one is published
}

// Remote is a Maven-layout repository read through a transport.
type Remote struct {
	name  string
	t     transport.Transport
	opts  RemoteOptions
	poms  *descriptors
	index map[string][]deps.Version // group:artifact -> versions, per process
}

// NewRemote creates a remote repository called name over t.
func NewRemote(name string, t transport.Transport, opts RemoteOptions) (*Remote, error) {
	r := &Remote{name: name, t: t, opts: opts, index: make(map[string][]deps.Version)}
	poms, err := newDescriptors(r.get)
	if err != nil {
		return nil, err
	}
	r.poms = poms
	return r, nil
}

// Name returns the repository name.
func (r *Remote) Name() string { return r.name }

// URL returns the absolute location of a repository-relative path.
func (r *Remote) URL(path string) string { return r.t.URL(path) }

// Identity returns the repository base URL.
func (r *Remote) Identity() string { return r.t.URL("") }

// Resolve locates dep's archive and returns its descriptor entries for scope.
// A missing descriptor is accepted when the archive itself exists.
func (r *Remote) Resolve(ctx context.Context, dep deps.Dependency, scope deps.Scope) (deps.RepositoryArtifact, []deps.Dependency, error) {
	artifact := deps.RepositoryArtifact{Repository: r.name, Location: ArchivePath(dep)}

	pom, err := r.poms.load(ctx, dep.Group, dep.Artifact, dep.Version.String(), 0)
	if deps.IsNotFound(err) {
		ok, err := r.t.Exists(ctx, artifact.Location)
		if err != nil {
			return deps.RepositoryArtifact{}, nil, err
		}
		if !ok {
			return deps.RepositoryArtifact{}, nil, fmt.Errorf("%s: %w", r.t.URL(artifact.Location), deps.ErrNotFound)
		}
		return artifact, nil, nil
	}
	if err != nil {
		return deps.RepositoryArtifact{}, nil, err
	}
	return artifact, pom.children(scope), nil
}

// Versions returns every version listed in group:artifact's maven-metadata.xml.
func (r *Remote) Versions(ctx context.Context, group, artifact string) ([]deps.Version, error) {
	key := group + ":" + artifact
	if vs, ok := r.index[key]; ok {
		return vs, nil
	}
	data, err := r.get(ctx, MetadataPath(group, artifact))
	if err != nil {
		return nil, err
	}
	var md mavenMetadata
	if err := xml.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.t.URL(MetadataPath(group, artifact)), err)
	}
	vs := md.versions()
	r.index[key] = vs
	return vs, nil
}

// LatestVersion returns the highest version listed in maven-metadata.xml.
func (r *Remote) LatestVersion(ctx context.Context, group, artifact string) (deps.Version, error) {
	vs, err := r.Versions(ctx, group, artifact)
	if err != nil {
		return deps.Version{}, err
	}
	v, ok := deps.MaxVersion(vs)
	if !ok {
		return deps.Version{}, fmt.Errorf("%s:%s has no usable versions: %w", group, artifact, deps.ErrNotFound)
	}
	return v, nil
}

// Fetch downloads the archive at a.Location.
func (r *Remote) Fetch(ctx context.Context, a deps.RepositoryArtifact) ([]byte, error) {
	data, err := r.get(ctx, a.Location)
	if err != nil {
		return nil, err
	}
	if r.opts.VerifyChecksums {
		if err := r.verify(ctx, a, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (r *Remote) verify(ctx context.Context, a deps.RepositoryArtifact, data []byte) error {
	side := a.AppendPath(".sha1")
	want, err := r.get(ctx, side.Location)
	if deps.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	fields := strings.Fields(string(want))
	if len(fields) == 0 {
		return nil
	}
	sum := sha1.Sum(data)
	if !bytes.EqualFold([]byte(fields[0]), []byte(hex.EncodeToString(sum[:]))) {
		return fmt.Errorf("%s: %w", r.t.URL(a.Location), ErrChecksum)
	}
	return nil
}

// get reads path, translating the transport's not-found into deps.ErrNotFound.
func (r *Remote) get(ctx context.Context, path string) ([]byte, error) {
	data, err := r.t.Get(ctx, path)
	if errors.Is(err, transport.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", r.t.URL(path), deps.ErrNotFound)
	}
	return data, err
}

var (
	_ deps.Repository = (*Remote)(nil)
	_ VersionLister   = (*Remote)(nil)
)
