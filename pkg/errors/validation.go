package errors

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/matzehuels/depsync/pkg/deps"
)

// ValidateCoordinate validates a dependency coordinate from configuration
// and returns the parsed dependency.
//
// Beyond the coordinate grammar, group and artifact must be usable as
// repository path segments: no path separators, traversal sequences or
// control characters.
func ValidateCoordinate(text string) (deps.Dependency, error) {
	d, err := deps.ParseDependency(text)
	if err != nil {
		return deps.Dependency{}, Wrap(ErrCodeInvalidCoordinate, err, "invalid coordinate %q", text)
	}
	for _, seg := range []string{d.Group, d.Artifact, d.Classifier, d.Type} {
		if !segmentRegex.MatchString(seg) || strings.Contains(seg, "..") {
			return deps.Dependency{}, New(ErrCodeInvalidCoordinate, "invalid coordinate %q: bad segment %q", text, seg)
		}
	}
	return d, nil
}

// segmentRegex matches coordinate segments; empty is allowed for optional ones.
var segmentRegex = regexp.MustCompile(`^[A-Za-z0-9._-]*$`)

// repositoryNameRegex matches repository names.
var repositoryNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateRepositoryName validates a repository name.
func ValidateRepositoryName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "repository name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidConfig, "repository name too long (max 64 characters)")
	}
	if !repositoryNameRegex.MatchString(name) {
		return New(ErrCodeInvalidConfig, "invalid repository name: %q", name)
	}
	return nil
}

// ValidatePath validates a configured file system path such as a layout
// override or a local dependency. Absolute and parent-relative paths are
// allowed; they are the user's own file system.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateRelativePath validates a path that must stay inside its base
// directory, such as a reserved prefix or a repository-relative location.
func ValidateRelativePath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	return nil
}

// ValidateURL validates a repository URL. Accepted schemes are http,
// https, s3 and file; anything without a scheme is a local directory.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return New(ErrCodeInvalidConfig, "repository URL cannot be empty")
	}
	scheme, _, ok := strings.Cut(rawURL, "://")
	if !ok {
		return ValidatePath(rawURL)
	}
	switch strings.ToLower(scheme) {
	case "http", "https", "s3", "file":
		return nil
	}
	return New(ErrCodeInvalidConfig, "unsupported repository URL scheme %q", scheme)
}
