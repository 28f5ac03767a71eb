package deps

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by a [RepositoryError] when no configured repository
// knows a coordinate, and returned by repositories for unknown artifacts.
var ErrNotFound = errors.New("not found")

// ErrNoVersion is wrapped by a [VersionError] when no repository can supply
// a concrete version for a version-less dependency.
var ErrNoVersion = errors.New("no version available")

// ParseError reports malformed coordinate or version text. It is a
// configuration defect and must not be retried.
type ParseError struct {
	Input  string // Text that failed to parse
	Reason string // Human-readable cause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Input, e.Reason)
}

// RepositoryError reports a coordinate absent from every configured
// repository, or a transport failure relayed from a repository.
type RepositoryError struct {
	Coordinate string // Coordinate being resolved or fetched
	Repository string // Implicated repository name; empty when none matched
	Err        error  // Underlying cause (ErrNotFound or a transport error)
}

func (e *RepositoryError) Error() string {
	if e.Repository == "" {
		return fmt.Sprintf("resolve %s: %v", e.Coordinate, e.Err)
	}
	return fmt.Sprintf("resolve %s in %s: %v", e.Coordinate, e.Repository, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// VersionError reports a version-less dependency that no repository could
// resolve to a concrete version.
type VersionError struct {
	Coordinate string
	Err        error
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("version of %s: %v", e.Coordinate, e.Err)
}

func (e *VersionError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means a coordinate was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
