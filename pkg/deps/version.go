package deps

import (
	"regexp"
	"strconv"
	"strings"
)

// Version is a dependency version of the form major(.minor(.revision)?)?(-qualifier)?.
//
// Minor and revision are optional, so "1", "1.0" and "1.0.0" stay distinct
// and round-trip through [ParseVersion] and [Version.String]. The zero value
// is the unset version: it renders as "", sorts below every set version and
// is reported by [Version.IsZero].
type Version struct {
	major     int
	minor     int    // -1 when absent
	revision  int    // -1 when absent
	qualifier string // "" when absent
	set       bool
}

var versionPattern = regexp.MustCompile(`^(\d+)(?:\.(\d+)(?:\.(\d+))?)?(?:-([0-9A-Za-z._-]+))?$`)

// NewVersion builds a Version from explicit components. Pass -1 for an
// absent minor or revision and "" for an absent qualifier. A revision without
// a minor is dropped, since it has no textual representation.
func NewVersion(major, minor, revision int, qualifier string) Version {
	if major < 0 {
		major = 0
	}
	if minor < 0 {
		minor, revision = -1, -1
	}
	if revision < 0 {
		revision = -1
	}
	return Version{major: major, minor: minor, revision: revision, qualifier: qualifier, set: true}
}

// ParseVersion parses text into a Version. Surrounding whitespace is ignored.
func ParseVersion(text string) (Version, error) {
	s := strings.TrimSpace(text)
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, &ParseError{Input: text, Reason: "version must match major(.minor(.revision)?)?(-qualifier)?"}
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Version{}, &ParseError{Input: text, Reason: "major is out of range"}
	}
	minor, revision := -1, -1
	if m[2] != "" {
		if minor, err = strconv.Atoi(m[2]); err != nil {
			return Version{}, &ParseError{Input: text, Reason: "minor is out of range"}
		}
	}
	if m[3] != "" {
		if revision, err = strconv.Atoi(m[3]); err != nil {
			return Version{}, &ParseError{Input: text, Reason: "revision is out of range"}
		}
	}
	return NewVersion(major, minor, revision, m[4]), nil
}

// MustParseVersion is like ParseVersion but panics on error. Intended for
// tests and package-level literals.
func MustParseVersion(text string) Version {
	v, err := ParseVersion(text)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether v was never set.
func (v Version) IsZero() bool { return !v.set }

// Major returns the major component.
func (v Version) Major() int { return v.major }

// Minor returns the minor component, or -1 when absent.
func (v Version) Minor() int { return v.minor }

// Revision returns the revision component, or -1 when absent.
func (v Version) Revision() int { return v.revision }

// Qualifier returns the qualifier, or "" when absent.
func (v Version) Qualifier() string { return v.qualifier }

// HasMinor reports whether the minor component is present.
func (v Version) HasMinor() bool { return v.set && v.minor >= 0 }

// HasRevision reports whether the revision component is present.
func (v Version) HasRevision() bool { return v.set && v.revision >= 0 }

// String renders v in the same form accepted by ParseVersion.
func (v Version) String() string {
	if !v.set {
		return ""
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(v.major))
	if v.minor >= 0 {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(v.minor))
		if v.revision >= 0 {
			b.WriteByte('.')
			b.WriteString(strconv.Itoa(v.revision))
		}
	}
	if v.qualifier != "" {
		b.WriteByte('-')
		b.WriteString(v.qualifier)
	}
	return b.String()
}

// Compare returns -1, 0 or 1 when v sorts before, equal to or after o.
//
// Components are compared left to right. An absent minor or revision sorts
// below any present value. A qualified version sorts below the same
// unqualified version (1.0-beta < 1.0); two qualifiers compare lexically.
// The unset version sorts below every set version, so Compare returns 0
// exactly when [Version.Equal] holds.
func (v Version) Compare(o Version) int {
	if !v.set || !o.set {
		return cmpBool(v.set, o.set)
	}
	if c := cmpInt(v.major, o.major); c != 0 {
		return c
	}
	if c := cmpInt(v.minor, o.minor); c != 0 {
		return c
	}
	if c := cmpInt(v.revision, o.revision); c != 0 {
		return c
	}
	switch {
	case v.qualifier == o.qualifier:
		return 0
	case v.qualifier == "":
		return 1
	case o.qualifier == "":
		return -1
	}
	return strings.Compare(v.qualifier, o.qualifier)
}

// Less reports whether v sorts strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports whether v and o are the same version. Equal versions are
// also == comparable, so Version is safe to use as a map key.
func (v Version) Equal(o Version) bool { return v == o }

// MaxVersion returns the highest of vs, or false when vs is empty.
func MaxVersion(vs []Version) (Version, bool) {
	var best Version
	found := false
	for _, v := range vs {
		if v.IsZero() {
			continue
		}
		if !found || best.Less(v) {
			best, found = v, true
		}
	}
	return best, found
}

// absent components are stored as -1, which already sorts below any present
// non-negative value.
func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}
