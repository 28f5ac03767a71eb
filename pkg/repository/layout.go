// Package repository implements Maven-layout repositories for the resolver.
//
// Two variants implement [deps.Repository]:
//
//   - [Remote] reads through a [transport.Transport] (http(s) or s3) and
//     learns available versions from maven-metadata.xml.
//   - [Local] reads a directory on disk and learns versions by listing
//     version directories.
//
// Both parse POM descriptors, following parent POMs and imported BOMs for
// managed versions, and filter declared dependencies by the consuming scope.
// [NewHandler] serves a Local repository over HTTP in the same layout, so a
// Remote can consume it.
package repository

import (
	"context"
	"strings"

	"github.com/matzehuels/depsync/pkg/deps"
)

// MetadataFile is the per-artifact version index of a Maven repository.
const MetadataFile = "maven-metadata.xml"

// VersionLister is implemented by repositories that can enumerate every
// published version of an artifact.
type VersionLister interface {
	Versions(ctx context.Context, group, artifact string) ([]deps.Version, error)
}

// ArtifactDir returns group/with/slashes/artifact.
func ArtifactDir(group, artifact string) string {
	return strings.ReplaceAll(group, ".", "/") + "/" + artifact
}

// ArchivePath returns the repository-relative path of d's archive.
func ArchivePath(d deps.Dependency) string {
	return ArtifactDir(d.Group, d.Artifact) + "/" + d.Version.String() + "/" + d.RepositoryFileName()
}

// DescriptorPath returns the repository-relative path of d's POM.
func DescriptorPath(d deps.Dependency) string {
	return ArtifactDir(d.Group, d.Artifact) + "/" + d.Version.String() + "/" + d.DescriptorName()
}

// MetadataPath returns the repository-relative path of group:artifact's
// maven-metadata.xml.
func MetadataPath(group, artifact string) string {
	return ArtifactDir(group, artifact) + "/" + MetadataFile
}

// scopeFilter returns the descriptor scopes followed when resolving for s.
func scopeFilter(s deps.Scope) map[string]bool {
	switch s {
	case deps.Compile:
		return map[string]bool{"": true, "compile": true}
	default:
		return map[string]bool{"": true, "compile": true, "runtime": true}
	}
}
