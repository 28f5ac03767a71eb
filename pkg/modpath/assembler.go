// Package modpath lays out a project's directories and assembles the
// ordered module paths handed to compilers, launchers and test runners.
//
// A module path lists the archives of every scope a purpose needs, lowest
// scope first, followed by the purpose's resource and output directories.
// Earlier entries shadow later ones, so the order is part of the contract:
//
//	CompileMain  compile archives
//	CompileTest  compile, test archives; build/main
//	Run          compile, runtime, standalone archives; src/main/resources, build/main
//	Test         compile, runtime, standalone, test archives; src/main/resources, build/main, build/test
//
// Within a scope, archives from the managed directory come first in name
// order, then those contributed by local dependencies in declaration order.
package modpath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/depsync/pkg/deps"
)

// Purpose names a consumer of a module path.
type Purpose int

const (
	CompileMain Purpose = iota
	CompileTest
	Run
	Test
)

var purposeNames = []string{"compile", "compile-test", "run", "test"}

// Purposes lists every purpose.
var Purposes = []Purpose{CompileMain, CompileTest, Run, Test}

func (p Purpose) String() string {
	if p < 0 || int(p) >= len(purposeNames) {
		return fmt.Sprintf("Purpose(%d)", int(p))
	}
	return purposeNames[p]
}

// ParsePurpose parses a purpose name as printed by [Purpose.String].
func ParsePurpose(name string) (Purpose, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range purposeNames {
		if s == n {
			return Purpose(i), nil
		}
	}
	return 0, fmt.Errorf("unknown module path %q (want one of %s)", name, strings.Join(purposeNames, ", "))
}

// Scopes returns the scopes whose archives p includes, lowest first.
func (p Purpose) Scopes() []deps.Scope {
	switch p {
	case CompileMain:
		return []deps.Scope{deps.Compile}
	case CompileTest:
		return []deps.Scope{deps.Compile, deps.Test}
	case Run:
		return []deps.Scope{deps.Compile, deps.Runtime, deps.Standalone}
	case Test:
		return []deps.Scope{deps.Compile, deps.Runtime, deps.Standalone, deps.Test}
	}
	return nil
}

// DefaultExtensions are the file extensions recognized as archives.
var DefaultExtensions = []string{".jar"}

// Assembler builds module paths from a layout and the local dependencies
// declared per scope.
type Assembler struct {
	Layout     Layout
	Scopes     *deps.DependencyScopes // Local dependencies; may be nil
	Extensions []string               // Archive extensions; DefaultExtensions when empty
}

// Path returns the module path for p: absolute, ordered and without
// duplicates.
func (a *Assembler) Path(p Purpose) ([]string, error) {
	var entries []string
	for _, s := range p.Scopes() {
		archives, err := a.Archives(s)
		if err != nil {
			return nil, err
		}
		entries = append(entries, archives...)
	}
	entries = append(entries, a.trailing(p)...)
	return dedupe(entries), nil
}

// Archives returns the archives of a single scope: the managed directory's
// archives in name order, then those of its local dependencies. Missing
// directories and local paths are skipped.
func (a *Assembler) Archives(s deps.Scope) ([]string, error) {
	var out []string
	if dir, ok := a.Layout.ScopeLib(s); ok {
		found, err := a.listArchives(dir)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}

	var set *deps.DependencySet
	if a.Scopes != nil {
		set = a.Scopes.Get(s)
	}
	for _, l := range set.Locals() {
		path := l.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.Layout.Root, path)
		}
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, filepath.Clean(path))
			continue
		}
		found, err := a.listArchives(path)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (a *Assembler) trailing(p Purpose) []string {
	switch p {
	case CompileTest:
		return []string{a.Layout.BuildMain()}
	case Run:
		return []string{a.Layout.SrcMainResources(), a.Layout.BuildMain()}
	case Test:
		return []string{a.Layout.SrcMainResources(), a.Layout.BuildMain(), a.Layout.BuildTest()}
	}
	return nil
}

// listArchives returns the archives directly inside dir, sorted by name.
func (a *Assembler) listArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	exts := a.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !hasExtension(e.Name(), exts) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func hasExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.EqualFold(filepath.Ext(name), ext) {
			return true
		}
	}
	return false
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Join renders a module path with the platform's list separator.
func Join(paths []string) string {
	return strings.Join(paths, string(os.PathListSeparator))
}
