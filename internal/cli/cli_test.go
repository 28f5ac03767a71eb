package cli

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/project"
	"github.com/matzehuels/depsync/pkg/repository"
	"github.com/matzehuels/depsync/pkg/updates"
)

// run executes the root command against the project in dir.
func run(t *testing.T, dir string, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	cmd := c.RootCommand()
	cmd.SetArgs(append([]string{"-p", dir}, args...))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

// captureStdout returns what fn writes to os.Stdout.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "stdout")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	orig := os.Stdout
	os.Stdout = f
	runErr := fn()
	os.Stdout = orig

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	return string(data), runErr
}

func pom(group, artifact, version string, children ...string) string {
	s := "<project><groupId>" + group + "</groupId><artifactId>" + artifact + "</artifactId><version>" + version + "</version><dependencies>"
	for _, c := range children {
		d := deps.MustParseDependency(c)
		s += "<dependency><groupId>" + d.Group + "</groupId><artifactId>" + d.Artifact + "</artifactId><version>" + d.Version.String() + "</version></dependency>"
	}
	return s + "</dependencies></project>"
}

// testRepository writes a repository in Maven layout:
//
//	org.example:app:1.0 -> org.example:lib:2.0
//	org.example:app:1.1 -> org.example:lib:2.0
//	org.example:check:1.0
func testRepository(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"org/example/app/1.0/app-1.0.pom":     pom("org.example", "app", "1.0", "org.example:lib:2.0"),
		"org/example/app/1.0/app-1.0.jar":     "app 1.0",
		"org/example/app/1.1/app-1.1.pom":     pom("org.example", "app", "1.1", "org.example:lib:2.0"),
		"org/example/app/1.1/app-1.1.jar":     "app 1.1",
		"org/example/lib/2.0/lib-2.0.pom":     pom("org.example", "lib", "2.0"),
		"org/example/lib/2.0/lib-2.0.jar":     "lib 2.0",
		"org/example/check/1.0/check-1.0.pom": pom("org.example", "check", "1.0"),
		"org/example/check/1.0/check-1.0.jar": "check 1.0",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// testProject writes a project using repo and returns its root.
func testProject(t *testing.T, repo string) string {
	t.Helper()
	t.Setenv(project.EnvCacheDir, t.TempDir())
	t.Setenv(project.EnvRedisURL, "")

	root := t.TempDir()
	data := `name = "demo"

[[repository]]
name = "local"
url  = "` + filepath.ToSlash(repo) + `"

[dependencies]
compile = ["org.example:app:1.0"]
test    = ["org.example:check:1.0"]

[sync]
reserved_prefixes = ["keep"]
`
	if err := os.WriteFile(filepath.Join(root, project.FileName), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestInitCommand(t *testing.T) {
	root := t.TempDir()
	if err := run(t, root, "init", "--name", "demo", "--repository", "https://repo.example.com/maven2/"); err != nil {
		t.Fatalf("init: %v", err)
	}

	p, err := project.Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.File.Name != "demo" {
		t.Errorf("name = %q, want demo", p.File.Name)
	}
	for _, dir := range []string{"src/main/java", "src/test/java", "lib/compile", "lib/test"} {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Errorf("missing %s: %v", dir, err)
		}
	}

	if err := run(t, root, "init"); err == nil {
		t.Error("second init should fail")
	}
}

func TestSyncCommand(t *testing.T) {
	root := testProject(t, testRepository(t))
	compile := filepath.Join(root, "lib", "compile")
	if err := os.MkdirAll(compile, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"stale-0.1.jar", "keep-wrapper.jar"} {
		if err := os.WriteFile(filepath.Join(compile, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	metrics := filepath.Join(t.TempDir(), "depsync.prom")
	if err := run(t, root, "sync", "--metrics-file", metrics); err != nil {
		t.Fatalf("sync: %v", err)
	}

	got := listDir(t, compile)
	want := []string{"keep-wrapper.jar", "org.example+app+1.0.jar", "org.example+lib+2.0.jar"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("lib/compile = %v, want %v", got, want)
	}
	if got := listDir(t, filepath.Join(root, "lib", "test")); len(got) != 1 || got[0] != "org.example+check+1.0.jar" {
		t.Errorf("lib/test = %v, want [org.example+check+1.0.jar]", got)
	}
	data, err := os.ReadFile(filepath.Join(compile, "org.example+app+1.0.jar"))
	if err != nil || string(data) != "app 1.0" {
		t.Errorf("org.example+app+1.0.jar = %q, %v", data, err)
	}

	// Unchanged configuration takes the fast path without opening the
	// descriptor cache.
	cacheDir := filepath.Join(t.TempDir(), "cache")
	t.Setenv(project.EnvCacheDir, cacheDir)
	if err := run(t, root, "sync", "--scope", "compile", "--metrics-file", metrics); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Errorf("fast-path sync opened the cache at %s: %v", cacheDir, err)
	}
	text, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(text), `depsync_sync_total{path="fast",scope="compile"} 1`) {
		t.Errorf("metrics do not record a fast path:\n%s", text)
	}
}

func TestSyncUnknownScope(t *testing.T) {
	root := testProject(t, testRepository(t))
	if err := run(t, root, "sync", "--scope", "provided"); err == nil {
		t.Error("expected error for unknown scope")
	}
}

func TestSyncMissingArtifact(t *testing.T) {
	repo := testRepository(t)
	root := testProject(t, repo)
	if err := os.RemoveAll(filepath.Join(repo, "org", "example", "lib")); err != nil {
		t.Fatal(err)
	}

	if err := run(t, root, "sync", "--scope", "compile"); err == nil {
		t.Fatal("expected error for missing transitive dependency")
	}
	if _, err := os.Stat(filepath.Join(root, ".depsync")); err == nil {
		entries := listDir(t, filepath.Join(root, ".depsync"))
		for _, e := range entries {
			if strings.Contains(e, "compile") {
				t.Errorf("failed sync left state %s", e)
			}
		}
	}
}

func TestPathCommand(t *testing.T) {
	root := testProject(t, testRepository(t))
	if err := run(t, root, "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return run(t, root, "path", "compile-test", "--lines")
	})
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	want := []string{
		filepath.Join(root, "lib", "compile", "org.example+app+1.0.jar"),
		filepath.Join(root, "lib", "compile", "org.example+lib+2.0.jar"),
		filepath.Join(root, "lib", "test", "org.example+check+1.0.jar"),
		filepath.Join(root, "build", "main"),
	}
	if got := strings.Fields(out); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("path compile-test =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	if err := run(t, root, "path", "package"); err == nil {
		t.Error("expected error for unknown purpose")
	}
}

func TestGraphCommand(t *testing.T) {
	root := testProject(t, testRepository(t))
	out := filepath.Join(t.TempDir(), "compile.dot")
	if err := run(t, root, "graph", "-o", out); err != nil {
		t.Fatalf("graph: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"digraph", "org.example:app:1.0", "org.example:lib:2.0"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("graph output missing %q:\n%s", want, data)
		}
	}

	if err := run(t, root, "graph", "--format", "png"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestPurgeCommand(t *testing.T) {
	root := testProject(t, testRepository(t))
	if err := run(t, root, "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	compile := filepath.Join(root, "lib", "compile")
	if err := os.WriteFile(filepath.Join(compile, "keep-wrapper.jar"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run(t, root, "purge", "--scope", "compile"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if got := listDir(t, compile); len(got) != 1 || got[0] != "keep-wrapper.jar" {
		t.Errorf("lib/compile after purge = %v", got)
	}
	if got := listDir(t, filepath.Join(root, "lib", "test")); len(got) != 1 {
		t.Errorf("purge of compile touched lib/test: %v", got)
	}

	// Purged state forces a full sync.
	if err := run(t, root, "sync", "--scope", "compile"); err != nil {
		t.Fatalf("sync after purge: %v", err)
	}
	if got := listDir(t, compile); len(got) != 3 {
		t.Errorf("lib/compile after resync = %v", got)
	}
}

func TestUpdatesApply(t *testing.T) {
	root := testProject(t, testRepository(t))
	if err := run(t, root, "updates", "--apply"); err != nil {
		t.Fatalf("updates: %v", err)
	}

	p, err := project.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.File.Dependencies.Compile; len(got) != 1 || got[0] != "org.example:app:1.1" {
		t.Errorf("compile = %v, want [org.example:app:1.1]", got)
	}
	if got := p.File.Dependencies.Test; len(got) != 1 || got[0] != "org.example:check:1.0" {
		t.Errorf("test = %v, want unchanged", got)
	}
}

func TestUpdatesFlagConflict(t *testing.T) {
	root := testProject(t, testRepository(t))
	if err := run(t, root, "updates", "--apply", "--interactive"); err == nil {
		t.Error("expected error for --apply with --interactive")
	}
}

func TestLoadMissingProject(t *testing.T) {
	err := run(t, t.TempDir(), "sync")
	if err == nil || !strings.Contains(err.Error(), "depsync init") {
		t.Errorf("err = %v, want hint to run depsync init", err)
	}
}

func TestServeRepository(t *testing.T) {
	local, err := repository.NewLocal("local", testRepository(t))
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- serveRepository(ctx, ln, local, true)
	}()

	base := "http://" + ln.Addr().String()
	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(base + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	if code, body := get("/org/example/lib/2.0/lib-2.0.jar"); code != http.StatusOK || body != "lib 2.0" {
		t.Errorf("archive: %d %q", code, body)
	}
	if code, _ := get("/org/example/lib/9.9/lib-9.9.jar"); code != http.StatusNotFound {
		t.Errorf("missing archive: status %d", code)
	}
	if code, body := get("/org/example/app/maven-metadata.xml"); code != http.StatusOK || !strings.Contains(body, "<release>1.1</release>") {
		t.Errorf("metadata: %d %q", code, body)
	}
	if code, body := get("/metrics"); code != http.StatusOK || !strings.Contains(body, "go_goroutines") {
		t.Errorf("metrics: %d", code)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("serveRepository: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestUpdatePickerModel(t *testing.T) {
	list := []updates.Update{
		{Scope: deps.Compile, Dependency: deps.MustParseDependency("g:a:1.0"), Latest: deps.MustParseVersion("1.1")},
		{Scope: deps.Compile, Dependency: deps.MustParseDependency("g:b:2.0"), Latest: deps.MustParseVersion("3.0")},
		{Scope: deps.Test, Dependency: deps.MustParseDependency("g:c:1"), Latest: deps.MustParseVersion("2")},
	}
	key := func(s string) tea.KeyMsg {
		switch s {
		case "enter":
			return tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			return tea.KeyMsg{Type: tea.KeyDown}
		case "esc":
			return tea.KeyMsg{Type: tea.KeyEsc}
		}
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	press := func(m UpdatePickerModel, keys ...string) UpdatePickerModel {
		for _, k := range keys {
			next, _ := m.Update(key(k))
			m = next.(UpdatePickerModel)
		}
		return m
	}

	m := press(NewUpdatePickerModel(list), "x", "down", "down", " ", "enter")
	got := m.Selected()
	if len(got) != 2 || got[0].Dependency.Artifact != "a" || got[1].Dependency.Artifact != "c" {
		t.Errorf("Selected() = %v", got)
	}

	m = press(NewUpdatePickerModel(list), "x", "x", "enter")
	if got := m.Selected(); len(got) != 0 {
		t.Errorf("toggle twice selected %v", got)
	}

	m = press(NewUpdatePickerModel(list), "a", "enter")
	if got := m.Selected(); len(got) != 3 {
		t.Errorf("select all = %d entries", len(got))
	}
	m = press(NewUpdatePickerModel(list), "a", "a", "enter")
	if got := m.Selected(); len(got) != 0 {
		t.Errorf("select all twice = %d entries", len(got))
	}

	m = press(NewUpdatePickerModel(list), "a", "esc")
	if m.Selected() != nil {
		t.Error("dismissed picker should select nothing")
	}

	m = press(NewUpdatePickerModel(list), "k", "up")
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.Cursor)
	}
	m = press(m, "j", "j", "j", "j")
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.Cursor)
	}
	if !strings.Contains(m.View(), "g:c") {
		t.Errorf("view does not list updates:\n%s", m.View())
	}
}

func TestCompletionCommand(t *testing.T) {
	complete := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := New(io.Discard, LogInfo).RootCommand()
		cmd.SetArgs(append([]string{"completion"}, args...))
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	out, err := complete("zsh")
	if err != nil || !strings.Contains(out, "#compdef depsync") {
		t.Errorf("completion zsh = %.40q, %v", out, err)
	}

	t.Setenv("SHELL", "/usr/bin/fish")
	if out, err := complete(); err != nil || !strings.Contains(out, "complete -c depsync") {
		t.Errorf("completion from $SHELL = %.40q, %v", out, err)
	}

	t.Setenv("SHELL", "/bin/tcsh")
	if _, err := complete(); err == nil {
		t.Error("expected error for unsupported $SHELL")
	}
	if _, err := complete("cmd.exe"); err == nil {
		t.Error("expected error for unknown shell argument")
	}

	names, _ := completeScopes(nil, nil, "")
	if strings.Join(names, ",") != "compile,runtime,standalone,test" {
		t.Errorf("completeScopes() = %v", names)
	}
}
