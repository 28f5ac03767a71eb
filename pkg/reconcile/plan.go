package reconcile

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/matzehuels/depsync/pkg/deps"
)

// Plan is the set of file operations that brings a managed directory in
// line with a resolution.
type Plan struct {
	Fetch    []FileOp // desired, absent on disk; resolution order
	Delete   []string // on disk, not desired; sorted
	Keep     []string // desired and already on disk; sorted
	Shadowed []string // desired but reserved, left untouched; sorted
}

// FileOp is one archive to download into the managed directory.
type FileOp struct {
	Name     string
	Artifact deps.RepositoryArtifact
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool { return len(p.Fetch) == 0 && len(p.Delete) == 0 }

// NewPlan compares the canonical names of a resolution with the file names
// present on disk. Version-less entries are ignored. Desired names that
// start with a reserved prefix land in Shadowed and are neither fetched, kept
// nor deleted, so a reserved file is never overwritten.
func NewPlan(res *deps.Resolution, present, reserved []string) Plan {
	desired := make(map[string]bool)
	onDisk := make(map[string]bool, len(present))
	for _, name := range present {
		onDisk[name] = true
	}

	var p Plan
	if res != nil {
		for _, r := range res.Dependencies {
			if !r.Dependency.HasVersion() {
				continue
			}
			name := r.Dependency.FileName()
			if desired[name] {
				continue
			}
			desired[name] = true
			if Reserved(name, reserved) {
				p.Shadowed = append(p.Shadowed, name)
				continue
			}
			if onDisk[name] {
				p.Keep = append(p.Keep, name)
			} else {
				p.Fetch = append(p.Fetch, FileOp{Name: name, Artifact: r.Artifact})
			}
		}
	}
	for _, name := range present {
		if !desired[name] && !Reserved(name, reserved) {
			p.Delete = append(p.Delete, name)
		}
	}
	sort.Strings(p.Keep)
	sort.Strings(p.Delete)
	sort.Strings(p.Shadowed)
	return p
}

// Reserved reports whether name starts with one of prefixes.
func Reserved(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// listFiles returns the sorted names of the regular files in dir that are
// not reserved. A missing directory has no files. Subdirectories are not
// managed and are left alone.
func listFiles(dir string, reserved []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || Reserved(e.Name(), reserved) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}
