// Package project loads a project's depsync.toml and turns it into the
// values the resolver, reconciler and path assembler work with.
//
// A project file looks like:
//
//	name = "app"
//
//	[[repository]]
//	name = "central"
//	url  = "https://repo1.maven.org/maven2/"
//
//	[dependencies]
//	compile = ["com.example:lib:1.2.0"]
//	test    = ["org.junit.jupiter:junit-jupiter:5.10.0"]
//
//	[local]
//	compile = ["vendor/"]
//
//	[sync]
//	reserved_prefixes = ["bld-wrapper"]
//
// A .env file next to depsync.toml is loaded before the file is read, and
// ${VAR} references in repository URLs and credentials are expanded from
// the environment.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/depsync/pkg/deps"
	apperrors "github.com/matzehuels/depsync/pkg/errors"
	"github.com/matzehuels/depsync/pkg/modpath"
	"github.com/matzehuels/depsync/pkg/reconcile"
)

// FileName is the project file looked up in the project root.
const FileName = "depsync.toml"

// DefaultStateDir holds the reconciler fingerprints, relative to the root.
const DefaultStateDir = ".depsync"

// File is the decoded form of depsync.toml.
type File struct {
	Name         string             `toml:"name,omitempty"`
	Repositories []RepositoryConfig `toml:"repository,omitempty"`
	Dependencies ScopeLists         `toml:"dependencies"`
	Local        ScopeLists         `toml:"local"`
	Layout       LayoutConfig       `toml:"layout"`
	Sync         SyncConfig         `toml:"sync"`
	Cache        CacheConfig        `toml:"cache"`
}

// RepositoryConfig declares one repository. Declaration order is priority
// order.
type RepositoryConfig struct {
	Name            string    `toml:"name"`
	URL             string    `toml:"url"`
	Username        string    `toml:"username,omitempty"`
	Password        string    `toml:"password,omitempty"`
	VerifyChecksums bool      `toml:"verify_checksums,omitempty"`
	S3              *S3Config `toml:"s3,omitempty"`
}

// S3Config holds connection settings for s3:// repositories.
type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region,omitempty"`
	AccessKey string `toml:"access_key,omitempty"`
	SecretKey string `toml:"secret_key,omitempty"`
	UseSSL    *bool  `toml:"use_ssl,omitempty"`
}

// ScopeLists holds one list of entries per scope.
type ScopeLists struct {
	Compile    []string `toml:"compile,omitempty"`
	Runtime    []string `toml:"runtime,omitempty"`
	Standalone []string `toml:"standalone,omitempty"`
	Test       []string `toml:"test,omitempty"`
}

// Get returns the list of s.
func (l *ScopeLists) Get(s deps.Scope) []string {
	switch s {
	case deps.Compile:
		return l.Compile
	case deps.Runtime:
		return l.Runtime
	case deps.Standalone:
		return l.Standalone
	case deps.Test:
		return l.Test
	}
	return nil
}

func (l *ScopeLists) set(s deps.Scope, entries []string) {
	switch s {
	case deps.Compile:
		l.Compile = entries
	case deps.Runtime:
		l.Runtime = entries
	case deps.Standalone:
		l.Standalone = entries
	case deps.Test:
		l.Test = entries
	}
}

// LayoutConfig overrides project directories. Empty values keep the
// defaults.
type LayoutConfig struct {
	Src              string `toml:"src,omitempty"`
	SrcMain          string `toml:"src_main,omitempty"`
	SrcMainJava      string `toml:"src_main_java,omitempty"`
	SrcMainResources string `toml:"src_main_resources,omitempty"`
	SrcTest          string `toml:"src_test,omitempty"`
	SrcTestJava      string `toml:"src_test_java,omitempty"`
	Lib              string `toml:"lib,omitempty"`
	LibCompile       string `toml:"lib_compile,omitempty"`
	LibRuntime       string `toml:"lib_runtime,omitempty"`
	LibStandalone    string `toml:"lib_standalone,omitempty"`
	LibTest          string `toml:"lib_test,omitempty"`
	Build            string `toml:"build,omitempty"`
	BuildMain        string `toml:"build_main,omitempty"`
	BuildTest        string `toml:"build_test,omitempty"`
	BuildDist        string `toml:"build_dist,omitempty"`
}

// SyncConfig configures the reconciler.
type SyncConfig struct {
	ReservedPrefixes []string `toml:"reserved_prefixes,omitempty"`
	StateDir         string   `toml:"state_dir,omitempty"`
}

// CacheConfig configures the HTTP descriptor cache.
type CacheConfig struct {
	Dir      string `toml:"dir,omitempty"`
	TTL      string `toml:"ttl,omitempty"`
	RedisURL string `toml:"redis_url,omitempty"`
}

// Project is a loaded project file together with its root directory.
type Project struct {
	Root string // Absolute project root
	Path string // Project file; empty when parsed from memory
	File File
}

// Load reads root/depsync.toml after loading root/.env into the
// environment. Variables already set in the environment win over .env.
func Load(root string) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(filepath.Join(abs, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "load .env")
	}

	path := filepath.Join(abs, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "no %s in %s (run depsync init)", FileName, abs)
		}
		return nil, err
	}
	p, err := Parse(data, abs)
	if err != nil {
		return nil, err
	}
	p.Path = path
	return p, nil
}

// Parse decodes and validates project file contents for a project rooted
// at root.
func Parse(data []byte, root string) (*Project, error) {
	p := &Project{Root: root}
	md, err := toml.Decode(string(data), &p.File)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "parse %s", FileName)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, apperrors.New(apperrors.ErrCodeInvalidConfig, "unknown keys in %s: %s", FileName, strings.Join(keys, ", "))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks repository declarations, coordinates and paths.
func (p *Project) Validate() error {
	seen := make(map[string]bool)
	for _, r := range p.File.Repositories {
		if err := apperrors.ValidateRepositoryName(r.Name); err != nil {
			return err
		}
		if seen[r.Name] {
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "duplicate repository %q", r.Name)
		}
		seen[r.Name] = true
		if err := apperrors.ValidateURL(os.ExpandEnv(r.URL)); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "repository %q", r.Name)
		}
	}
	for _, s := range deps.Scopes {
		for _, c := range p.File.Dependencies.Get(s) {
			if _, err := apperrors.ValidateCoordinate(c); err != nil {
				return err
			}
		}
		for _, l := range p.File.Local.Get(s) {
			if err := apperrors.ValidatePath(l); err != nil {
				return apperrors.Wrap(apperrors.ErrCodeInvalidPath, err, "local %s dependency", s)
			}
		}
	}
	for _, prefix := range p.File.Sync.ReservedPrefixes {
		if err := apperrors.ValidateRelativePath(prefix); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "reserved prefix %q", prefix)
		}
	}
	if _, err := p.CacheTTL(); err != nil {
		return err
	}
	return nil
}

// Scopes returns the declared dependencies and local paths per scope, in
// declaration order.
func (p *Project) Scopes() (*deps.DependencyScopes, error) {
	scopes := &deps.DependencyScopes{}
	for _, s := range deps.Scopes {
		set := scopes.Scope(s)
		for _, c := range p.File.Dependencies.Get(s) {
			d, err := apperrors.ValidateCoordinate(c)
			if err != nil {
				return nil, err
			}
			set.Include(d)
		}
		for _, l := range p.File.Local.Get(s) {
			set.IncludeLocal(deps.NewLocalDependency(l))
		}
	}
	return scopes, nil
}

// Layout returns the project's directory layout.
func (p *Project) Layout() modpath.Layout {
	c := p.File.Layout
	return modpath.Layout{
		Root:                p.Root,
		SrcDir:              c.Src,
		SrcMainDir:          c.SrcMain,
		SrcMainJavaDir:      c.SrcMainJava,
		SrcMainResourcesDir: c.SrcMainResources,
		SrcTestDir:          c.SrcTest,
		SrcTestJavaDir:      c.SrcTestJava,
		LibDir:              c.Lib,
		LibCompileDir:       c.LibCompile,
		LibRuntimeDir:       c.LibRuntime,
		LibStandaloneDir:    c.LibStandalone,
		LibTestDir:          c.LibTest,
		BuildDir:            c.Build,
		BuildMainDir:        c.BuildMain,
		BuildTestDir:        c.BuildTest,
		BuildDistDir:        c.BuildDist,
	}
}

// StateDir returns the absolute directory holding reconciler fingerprints.
func (p *Project) StateDir() string {
	dir := p.File.Sync.StateDir
	if dir == "" {
		dir = DefaultStateDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.Root, dir)
}

// Targets returns a reconcile target for every scope with a managed
// directory. When only is given, other scopes are left out.
func (p *Project) Targets(only ...deps.Scope) []reconcile.Target {
	layout := p.Layout()
	var out []reconcile.Target
	for _, s := range deps.Scopes {
		if len(only) > 0 && !containsScope(only, s) {
			continue
		}
		dir, ok := layout.ScopeLib(s)
		if !ok {
			continue
		}
		out = append(out, reconcile.Target{Scope: s, Dir: dir, State: reconcile.StatePath(p.StateDir(), s)})
	}
	return out
}

// ReconcileOptions returns reconciler options from the [sync] table.
func (p *Project) ReconcileOptions() reconcile.Options {
	return reconcile.Options{ReservedPrefixes: p.File.Sync.ReservedPrefixes}
}

// CacheTTL returns the configured descriptor cache lifetime, or zero for
// the transport default.
func (p *Project) CacheTTL() (time.Duration, error) {
	if p.File.Cache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(p.File.Cache.TTL)
	if err != nil || d < 0 {
		return 0, apperrors.New(apperrors.ErrCodeInvalidConfig, "invalid cache ttl %q", p.File.Cache.TTL)
	}
	return d, nil
}

// SetVersion pins the declared coordinate of key in scope to version and
// reports whether a declaration was changed.
func (p *Project) SetVersion(scope deps.Scope, key deps.Key, version deps.Version) bool {
	entries := append([]string(nil), p.File.Dependencies.Get(scope)...)
	changed := false
	for i, c := range entries {
		d, err := deps.ParseDependency(c)
		if err != nil || d.Key() != key || d.Version == version {
			continue
		}
		entries[i] = d.WithVersion(version).String()
		changed = true
	}
	if changed {
		p.File.Dependencies.set(scope, entries)
	}
	return changed
}

// Encode renders the project file as TOML.
func (p *Project) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p.File); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the project file back to Path.
func (p *Project) Save() error {
	if p.Path == "" {
		return fmt.Errorf("project was not loaded from a file")
	}
	data, err := p.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(p.Path, data, 0o644)
}

// Init writes a new project file with one repository to root. An existing
// file is left alone and reported as an error.
func Init(root, name, repositoryURL string) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(abs, FileName)
	if _, err := os.Stat(path); err == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidConfig, "%s already exists", path)
	}
	if name == "" {
		name = filepath.Base(abs)
	}
	p := &Project{Root: abs, Path: path, File: File{
		Name:         name,
		Repositories: []RepositoryConfig{{Name: "central", URL: repositoryURL}},
	}}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return p, p.Save()
}

func containsScope(scopes []deps.Scope, s deps.Scope) bool {
	for _, x := range scopes {
		if x == s {
			return true
		}
	}
	return false
}
