package reconcile

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"

	"github.com/matzehuels/depsync/pkg/deps"
)

// Identifier is implemented by repositories whose identity is more than
// their name, such as a base URL or root directory. Changing it changes the
// fingerprint of every configuration that uses the repository.
type Identifier interface {
	Identity() string
}

// Fingerprint returns the configuration hash of a scope: the scope name,
// the declared coordinates (normalized, sorted and deduplicated) and the
// repositories in priority order.
//
// The hash covers configuration only. Archive contents on disk are never
// hashed, so a fingerprint match says nothing about file integrity.
func Fingerprint(scope deps.Scope, declared *deps.DependencySet, repos []deps.Repository) string {
	h := sha256.New()

	writeField(h, "scope")
	writeField(h, scope.String())

	coords := Coordinates(declared)
	writeCount(h, len(coords))
	for _, c := range coords {
		writeField(h, c)
	}

	writeCount(h, len(repos))
	for _, r := range repos {
		writeField(h, RepositoryIdentity(r))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Coordinates returns the normalized coordinate strings of declared, sorted
// and without duplicates.
func Coordinates(declared *deps.DependencySet) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range declared.Dependencies() {
		s := d.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// RepositoryIdentity returns the string a repository contributes to a
// fingerprint.
func RepositoryIdentity(r deps.Repository) string {
	if id, ok := r.(Identifier); ok {
		return r.Name() + "=" + id.Identity()
	}
	return r.Name()
}

// writeField writes a length-prefixed field so adjacent fields cannot run
// into each other.
func writeField(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}

func writeCount(h hash.Hash, n int) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	h.Write(b[:])
}
