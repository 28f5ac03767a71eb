package deps

import (
	"regexp"
	"strings"
)

// DefaultType is the artifact type assumed when a coordinate names none.
// Archives of this type are stored with the ".jar" extension.
const DefaultType = "archive"

var (
	segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	typePattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Dependency identifies an external artifact by group, artifact, optional
// version, optional classifier and type.
//
// Identity for conflict purposes is [Dependency.Key]; the version is a
// resolved attribute and is not part of it.
type Dependency struct {
	Group      string
	Artifact   string
	Version    Version // zero when version-less
	Classifier string
	Type       string // DefaultType when empty
}

// Key is the identity of a dependency within a scope: two dependencies with
// equal keys are the same library, whatever their versions.
type Key struct {
	Group      string
	Artifact   string
	Classifier string
	Type       string
}

func (k Key) String() string {
	s := k.Group + ":" + k.Artifact
	if k.Classifier != "" || k.Type != DefaultType {
		s += ":" + k.Classifier
	}
	if k.Type != DefaultType {
		s += ":" + k.Type
	}
	return s
}

// NewDependency returns a dependency on group:artifact at version v. Pass a
// zero Version for a version-less dependency.
func NewDependency(group, artifact string, v Version) Dependency {
	return Dependency{Group: group, Artifact: artifact, Version: v, Type: DefaultType}
}

// ParseDependency parses group:artifact[:version[:classifier[:type]]].
//
// Empty optional segments are treated as absent, so "g:a::sources" is a
// version-less dependency with the sources classifier.
func ParseDependency(text string) (Dependency, error) {
	s := strings.TrimSpace(text)
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return Dependency{}, &ParseError{Input: text, Reason: "expected group:artifact[:version[:classifier[:type]]]"}
	}
	if len(parts) > 5 {
		return Dependency{}, &ParseError{Input: text, Reason: "too many segments"}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return Dependency{}, &ParseError{Input: text, Reason: "missing group"}
	}
	if parts[1] == "" {
		return Dependency{}, &ParseError{Input: text, Reason: "missing artifact"}
	}

	d := NewDependency(parts[0], parts[1], Version{})
	if len(parts) > 2 && parts[2] != "" {
		v, err := ParseVersion(parts[2])
		if err != nil {
			return Dependency{}, &ParseError{Input: text, Reason: "malformed version " + parts[2]}
		}
		d.Version = v
	}
	if len(parts) > 3 {
		d.Classifier = parts[3]
	}
	if len(parts) > 4 && parts[4] != "" {
		d.Type = parts[4]
	}
	d.Type = d.typ()
	if reason := d.invalid(); reason != "" {
		return Dependency{}, &ParseError{Input: text, Reason: reason}
	}
	return d, nil
}

// Validate reports whether every segment of d is usable in a file name.
// Group, artifact and classifier are limited to letters, digits, '.', '-'
// and '_' and may not contain ".."; the type additionally may not contain
// '.'.
func (d Dependency) Validate() error {
	if reason := d.invalid(); reason != "" {
		return &ParseError{Input: d.String(), Reason: reason}
	}
	return nil
}

func (d Dependency) invalid() string {
	switch {
	case strings.Contains(d.Group+":"+d.Artifact+":"+d.Classifier, ".."):
		return "segment contains .."
	case !segmentPattern.MatchString(d.Group):
		return "invalid group " + d.Group
	case !segmentPattern.MatchString(d.Artifact):
		return "invalid artifact " + d.Artifact
	case d.Classifier != "" && !segmentPattern.MatchString(d.Classifier):
		return "invalid classifier " + d.Classifier
	case !typePattern.MatchString(d.typ()):
		return "invalid type " + d.Type
	}
	return ""
}

// MustParseDependency is like ParseDependency but panics on error.
func MustParseDependency(text string) Dependency {
	d, err := ParseDependency(text)
	if err != nil {
		panic(err)
	}
	return d
}

// Key returns the identity of d.
func (d Dependency) Key() Key {
	return Key{Group: d.Group, Artifact: d.Artifact, Classifier: d.Classifier, Type: d.typ()}
}

// WithVersion returns a copy of d pinned to v.
func (d Dependency) WithVersion(v Version) Dependency {
	d.Version = v
	return d
}

// HasVersion reports whether d names a concrete version.
func (d Dependency) HasVersion() bool { return !d.Version.IsZero() }

// String renders d in the coordinate form accepted by ParseDependency.
// Trailing default segments are omitted.
func (d Dependency) String() string {
	segs := []string{d.Group, d.Artifact, d.Version.String(), d.Classifier, d.typ()}
	if segs[4] == DefaultType {
		segs[4] = ""
	}
	n := len(segs)
	for n > 2 && segs[n-1] == "" {
		n--
	}
	return strings.Join(segs[:n], ":")
}

// Extension is the file extension of the archive d refers to.
func (d Dependency) Extension() string {
	if t := d.typ(); t != DefaultType {
		return t
	}
	return "jar"
}

// FileName returns the canonical on-disk name of d:
// group+artifact+version[+classifier].extension.
//
// No segment of a valid dependency contains '+' and the extension never
// contains '.', so distinct dependencies never share a name. The version
// segment is written even when empty.
func (d Dependency) FileName() string {
	var b strings.Builder
	b.WriteString(d.Group)
	b.WriteByte('+')
	b.WriteString(d.Artifact)
	b.WriteByte('+')
	b.WriteString(d.Version.String())
	if d.Classifier != "" {
		b.WriteByte('+')
		b.WriteString(d.Classifier)
	}
	b.WriteByte('.')
	b.WriteString(d.Extension())
	return b.String()
}

// RepositoryFileName is the name of d's archive inside a repository layout:
// artifact[-version][-classifier].extension.
func (d Dependency) RepositoryFileName() string {
	var b strings.Builder
	b.WriteString(d.Artifact)
	if d.HasVersion() {
		b.WriteByte('-')
		b.WriteString(d.Version.String())
	}
	if d.Classifier != "" {
		b.WriteByte('-')
		b.WriteString(d.Classifier)
	}
	b.WriteByte('.')
	b.WriteString(d.Extension())
	return b.String()
}

// DescriptorName is the file name of the dependency descriptor published
// next to d's archive.
func (d Dependency) DescriptorName() string {
	return d.Artifact + "-" + d.Version.String() + ".pom"
}

// "jar" is the archive type under its repository name.
func (d Dependency) typ() string {
	if d.Type == "" || d.Type == "jar" {
		return DefaultType
	}
	return d.Type
}

// LocalDependency is a file or directory, relative to the project root, that
// stands in for a repository artifact. Local dependencies never take part in
// transitive expansion.
type LocalDependency struct {
	Path string
}

// NewLocalDependency returns a local dependency on path.
func NewLocalDependency(path string) LocalDependency {
	return LocalDependency{Path: path}
}

func (l LocalDependency) String() string { return l.Path }
