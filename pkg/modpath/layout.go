package modpath

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/depsync/pkg/deps"
)

// Layout is the directory structure of a project. Every field is an
// optional override; empty fields fall back to the default derived from
// their parent directory. Relative overrides are taken relative to Root.
//
// Accessors return absolute paths when Root is absolute.
type Layout struct {
	Root string

	SrcDir              string // src
	SrcMainDir          string // src/main
	SrcMainJavaDir      string // src/main/java
	SrcMainResourcesDir string // src/main/resources
	SrcTestDir          string // src/test
	SrcTestJavaDir      string // src/test/java

	LibDir           string // lib
	LibCompileDir    string // lib/compile
	LibRuntimeDir    string // lib/runtime
	LibStandaloneDir string // unset unless configured
	LibTestDir       string // lib/test

	BuildDir     string // build
	BuildMainDir string // build/main
	BuildTestDir string // build/test
	BuildDistDir string // build/dist
}

// NewLayout returns the default layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) resolve(override, parent, name string) string {
	if override == "" {
		return filepath.Join(parent, name)
	}
	if filepath.IsAbs(override) {
		return filepath.Clean(override)
	}
	return filepath.Join(l.Root, override)
}

func (l Layout) Src() string              { return l.resolve(l.SrcDir, l.Root, "src") }
func (l Layout) SrcMain() string          { return l.resolve(l.SrcMainDir, l.Src(), "main") }
func (l Layout) SrcMainJava() string      { return l.resolve(l.SrcMainJavaDir, l.SrcMain(), "java") }
func (l Layout) SrcMainResources() string { return l.resolve(l.SrcMainResourcesDir, l.SrcMain(), "resources") }
func (l Layout) SrcTest() string          { return l.resolve(l.SrcTestDir, l.Src(), "test") }
func (l Layout) SrcTestJava() string      { return l.resolve(l.SrcTestJavaDir, l.SrcTest(), "java") }

func (l Layout) Lib() string        { return l.resolve(l.LibDir, l.Root, "lib") }
func (l Layout) LibCompile() string { return l.resolve(l.LibCompileDir, l.Lib(), "compile") }
func (l Layout) LibRuntime() string { return l.resolve(l.LibRuntimeDir, l.Lib(), "runtime") }
func (l Layout) LibTest() string    { return l.resolve(l.LibTestDir, l.Lib(), "test") }

// LibStandalone returns the standalone library directory, or "" when the
// project has none.
func (l Layout) LibStandalone() string {
	if l.LibStandaloneDir == "" {
		return ""
	}
	return l.resolve(l.LibStandaloneDir, l.Lib(), "standalone")
}

func (l Layout) Build() string     { return l.resolve(l.BuildDir, l.Root, "build") }
func (l Layout) BuildMain() string { return l.resolve(l.BuildMainDir, l.Build(), "main") }
func (l Layout) BuildTest() string { return l.resolve(l.BuildTestDir, l.Build(), "test") }
func (l Layout) BuildDist() string { return l.resolve(l.BuildDistDir, l.Build(), "dist") }

// ScopeLib returns the managed directory of scope. The second result is
// false when the scope has no managed directory.
func (l Layout) ScopeLib(s deps.Scope) (string, bool) {
	var dir string
	switch s {
	case deps.Compile:
		dir = l.LibCompile()
	case deps.Runtime:
		dir = l.LibRuntime()
	case deps.Standalone:
		dir = l.LibStandalone()
	case deps.Test:
		dir = l.LibTest()
	}
	return dir, dir != ""
}

// CreateProjectStructure creates the source and library directories.
// Existing directories are left as they are.
func (l Layout) CreateProjectStructure() error {
	dirs := []string{l.SrcMainJava(), l.SrcMainResources(), l.SrcTestJava()}
	for _, s := range deps.Scopes {
		if dir, ok := l.ScopeLib(s); ok {
			dirs = append(dirs, dir)
		}
	}
	return mkdirAll(dirs)
}

// CreateBuildStructure creates the build output directories.
func (l Layout) CreateBuildStructure() error {
	return mkdirAll([]string{l.BuildMain(), l.BuildTest(), l.BuildDist()})
}

func mkdirAll(dirs []string) error {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
