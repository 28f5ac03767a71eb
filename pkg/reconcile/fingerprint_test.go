package reconcile

import (
	"reflect"
	"testing"

	"github.com/matzehuels/depsync/pkg/deps"
	"github.com/matzehuels/depsync/pkg/deps/depstest"
)

func set(t *testing.T, coords ...string) *deps.DependencySet {
	t.Helper()
	s := deps.NewDependencySet()
	for _, c := range coords {
		d, err := deps.ParseDependency(c)
		if err != nil {
			t.Fatalf("ParseDependency(%q): %v", c, err)
		}
		s.Include(d)
	}
	return s
}

type identified struct {
	*depstest.Repository
	id string
}

func (r identified) Identity() string { return r.id }

func TestFingerprint(t *testing.T) {
	central := depstest.New("central")
	mirror := depstest.New("mirror")
	base := Fingerprint(deps.Compile, set(t, "g:a:1.0", "g:b:2.0"), []deps.Repository{central, mirror})

	tests := []struct {
		name  string
		scope deps.Scope
		set   *deps.DependencySet
		repos []deps.Repository
		same  bool
	}{
		{"declaration order", deps.Compile, set(t, "g:b:2.0", "g:a:1.0"), []deps.Repository{central, mirror}, true},
		{"whitespace and jar type", deps.Compile, set(t, " g:a:1.0 ", "g:b:2.0::jar"), []deps.Repository{central, mirror}, true},
		{"scope", deps.Runtime, set(t, "g:a:1.0", "g:b:2.0"), []deps.Repository{central, mirror}, false},
		{"version", deps.Compile, set(t, "g:a:1.1", "g:b:2.0"), []deps.Repository{central, mirror}, false},
		{"classifier", deps.Compile, set(t, "g:a:1.0:sources", "g:b:2.0"), []deps.Repository{central, mirror}, false},
		{"repository order", deps.Compile, set(t, "g:a:1.0", "g:b:2.0"), []deps.Repository{mirror, central}, false},
		{"repository removed", deps.Compile, set(t, "g:a:1.0", "g:b:2.0"), []deps.Repository{central}, false},
		{"repository identity", deps.Compile, set(t, "g:a:1.0", "g:b:2.0"), []deps.Repository{identified{central, "https://repo.example/"}, mirror}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fingerprint(tt.scope, tt.set, tt.repos)
			if (got == base) != tt.same {
				t.Errorf("Fingerprint() = %s, base %s, want same=%v", got, base, tt.same)
			}
		})
	}
}

func TestFingerprintEmpty(t *testing.T) {
	got := Fingerprint(deps.Compile, nil, nil)
	if len(got) != 64 {
		t.Errorf("Fingerprint() = %q, want a sha256 hex digest", got)
	}
	if got == Fingerprint(deps.Test, nil, nil) {
		t.Error("empty configurations of different scopes share a fingerprint")
	}
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	a := Fingerprint(deps.Compile, nil, []deps.Repository{depstest.New("ab"), depstest.New("c")})
	b := Fingerprint(deps.Compile, nil, []deps.Repository{depstest.New("a"), depstest.New("bc")})
	if a == b {
		t.Error("adjacent repository names run into each other")
	}
}

func TestCoordinates(t *testing.T) {
	got := Coordinates(set(t, "z:z:1", "a:a:2.0:natives", "a:a"))
	want := []string{"a:a", "a:a:2.0:natives", "z:z:1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Coordinates() = %v, want %v", got, want)
	}
}
