package repository

import (
	"encoding/xml"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/depsync/pkg/deps"
)

// NewHandler serves l over HTTP in Maven layout. Files are served from disk;
// maven-metadata.xml is generated from the version directories when the
// repository does not contain one.
func NewHandler(l *Local) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/*", l.serve)
	r.Head("/*", l.serve)
	return r
}

func (l *Local) serve(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
	if rel == "" {
		http.NotFound(w, r)
		return
	}

	file := l.file(rel)
	if info, err := os.Stat(file); err == nil {
		if info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, file)
		return
	}

	if path.Base(rel) == MetadataFile {
		l.serveMetadata(w, r, path.Dir(rel))
		return
	}
	http.NotFound(w, r)
}

func (l *Local) serveMetadata(w http.ResponseWriter, r *http.Request, dir string) {
	segs := strings.Split(dir, "/")
	if len(segs) < 2 {
		http.NotFound(w, r)
		return
	}
	group := strings.Join(segs[:len(segs)-1], ".")
	artifact := segs[len(segs)-1]

	vs, err := l.Versions(r.Context(), group, artifact)
	if err != nil || len(vs) == 0 {
		http.NotFound(w, r)
		return
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })

	var md mavenMetadata
	md.GroupID, md.ArtifactID = group, artifact
	for _, v := range vs {
		md.Versioning.Versions = append(md.Versioning.Versions, v.String())
	}
	md.Versioning.Latest = vs[len(vs)-1].String()
	if rel, ok := latestRelease(vs); ok {
		md.Versioning.Release = rel.String()
	}
	md.Versioning.LastUpdated = time.Now().UTC().Format("20060102150405")

	w.Header().Set("Content-Type", "application/xml")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	_ = enc.Encode(md)
}

// latestRelease returns the highest unqualified version of sorted vs.
func latestRelease(vs []deps.Version) (deps.Version, bool) {
	for i := len(vs) - 1; i >= 0; i-- {
		if vs[i].Qualifier() == "" {
			return vs[i], true
		}
	}
	return deps.Version{}, false
}
