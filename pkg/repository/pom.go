package repository

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/depsync/pkg/deps"
)

const (
	descriptorMemoSize = 1024
	maxParentDepth     = 16
)

type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Packaging    string          `xml:"packaging"`
	Parent       *pomParent      `xml:"parent"`
	Properties   pomProperties   `xml:"properties"`
	Management   []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Classifier string `xml:"classifier"`
	Type       string `xml:"type"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

// pomProperties decodes <properties> into a map keyed by element name.
type pomProperties map[string]string

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	*p = pomProperties{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			(*p)[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			return nil
		}
	}
}

type mavenMetadata struct {
	XMLName    xml.Name `xml:"metadata"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Versioning struct {
		Latest      string   `xml:"latest,omitempty"`
		Release     string   `xml:"release,omitempty"`
		Versions    []string `xml:"versions>version"`
		LastUpdated string   `xml:"lastUpdated,omitempty"`
	} `xml:"versioning"`
}

// versions returns every parseable version the metadata mentions.
// Versions outside the major.minor.revision-qualifier form are skipped.
func (m *mavenMetadata) versions() []deps.Version {
	var out []deps.Version
	seen := make(map[deps.Version]bool)
	all := append([]string{m.Versioning.Latest, m.Versioning.Release}, m.Versioning.Versions...)
	for _, s := range all {
		if strings.TrimSpace(s) == "" {
			continue
		}
		v, err := deps.ParseVersion(s)
		if err != nil || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// effectivePOM is a descriptor merged with its parents.
type effectivePOM struct {
	props   map[string]string
	managed map[string]string // group:artifact -> version
	deps    []pomDependency
}

var propertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expand substitutes ${name} references, leaving unknown ones in place.
func (e *effectivePOM) expand(s string) string {
	s = strings.TrimSpace(s)
	for i := 0; i < 5 && strings.Contains(s, "${"); i++ {
		next := propertyRef.ReplaceAllStringFunc(s, func(ref string) string {
			if v, ok := e.props[ref[2:len(ref)-1]]; ok {
				return v
			}
			return ref
		})
		if next == s {
			break
		}
		s = next
	}
	return s
}

// children returns the descriptor entries followed for scope, in
// declaration order. Entries whose version is missing, unresolvable or not
// in the version grammar come back version-less; entries whose coordinates
// fail [deps.Dependency.Validate] are dropped.
func (e *effectivePOM) children(scope deps.Scope) []deps.Dependency {
	allowed := scopeFilter(scope)
	seen := make(map[deps.Key]bool)
	var out []deps.Dependency

	for _, pd := range e.deps {
		group, artifact := e.expand(pd.GroupID), e.expand(pd.ArtifactID)
		if group == "" || artifact == "" || strings.Contains(group+artifact, "${") {
			continue
		}
		if e.expand(pd.Optional) == "true" || !allowed[e.expand(pd.Scope)] {
			continue
		}
		typ := e.expand(pd.Type)
		if typ == "pom" || typ == "test-jar" {
			continue
		}

		d := deps.NewDependency(group, artifact, deps.Version{})
		d.Classifier = e.expand(pd.Classifier)
		if typ != "" && typ != "jar" {
			d.Type = typ
		}
		ver := e.expand(pd.Version)
		if ver == "" {
			ver = e.managed[group+":"+artifact]
		}
		if v, err := deps.ParseVersion(ver); err == nil {
			d.Version = v
		}
		if d.Validate() != nil || seen[d.Key()] {
			continue
		}
		seen[d.Key()] = true
		out = append(out, d)
	}
	return out
}

type getFunc func(ctx context.Context, path string) ([]byte, error)

// descriptors loads and memoizes effective POMs through get, which must
// return an error wrapping deps.ErrNotFound for missing files.
type descriptors struct {
	get  getFunc
	memo *lru.Cache[string, *effectivePOM]
}

func newDescriptors(get getFunc) (*descriptors, error) {
	memo, err := lru.New[string, *effectivePOM](descriptorMemoSize)
	if err != nil {
		return nil, err
	}
	return &descriptors{get: get, memo: memo}, nil
}

func (d *descriptors) load(ctx context.Context, group, artifact, version string, depth int) (*effectivePOM, error) {
	path := ArtifactDir(group, artifact) + "/" + version + "/" + artifact + "-" + version + ".pom"
	if e, ok := d.memo.Get(path); ok {
		return e, nil
	}
	data, err := d.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var p pomProject
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	e := &effectivePOM{props: make(map[string]string), managed: make(map[string]string)}
	parentGroup, parentVersion := "", ""
	if p.Parent != nil && p.Parent.ArtifactID != "" {
		parentGroup, parentVersion = strings.TrimSpace(p.Parent.GroupID), strings.TrimSpace(p.Parent.Version)
		if depth < maxParentDepth {
			parent, err := d.load(ctx, parentGroup, strings.TrimSpace(p.Parent.ArtifactID), parentVersion, depth+1)
			if err != nil && !deps.IsNotFound(err) {
				return nil, err
			}
			if parent != nil {
				for k, v := range parent.props {
					e.props[k] = v
				}
				for k, v := range parent.managed {
					e.managed[k] = v
				}
			}
			e.deps = d.inherit(p.Dependencies, parent)
		}
	}
	if e.deps == nil {
		e.deps = p.Dependencies
	}

	e.props["project.groupId"] = firstNonEmpty(p.GroupID, parentGroup)
	e.props["project.artifactId"] = strings.TrimSpace(p.ArtifactID)
	e.props["project.version"] = firstNonEmpty(p.Version, parentVersion)
	e.props["project.parent.groupId"] = parentGroup
	e.props["project.parent.version"] = parentVersion
	e.props["pom.version"] = e.props["project.version"]
	for k, v := range p.Properties {
		e.props[k] = v
	}

	for _, m := range p.Management {
		g, a, v := e.expand(m.GroupID), e.expand(m.ArtifactID), e.expand(m.Version)
		if e.expand(m.Scope) == "import" && e.expand(m.Type) == "pom" {
			if depth >= maxParentDepth {
				continue
			}
			bom, err := d.load(ctx, g, a, v, depth+1)
			if err != nil && !deps.IsNotFound(err) {
				return nil, err
			}
			if bom != nil {
				for k, bv := range bom.managed {
					if _, ok := e.managed[k]; !ok {
						e.managed[k] = bv
					}
				}
			}
			continue
		}
		e.managed[g+":"+a] = v
	}

	d.memo.Add(path, e)
	return e, nil
}

// inherit merges a parent's dependencies after the child's own; a child
// declaration of the same group:artifact overrides the parent's.
func (d *descriptors) inherit(own []pomDependency, parent *effectivePOM) []pomDependency {
	out := append([]pomDependency(nil), own...)
	if parent == nil {
		return out
	}
	declared := make(map[string]bool, len(own))
	for _, pd := range own {
		declared[strings.TrimSpace(pd.GroupID)+":"+strings.TrimSpace(pd.ArtifactID)] = true
	}
	for _, pd := range parent.deps {
		if !declared[strings.TrimSpace(pd.GroupID)+":"+strings.TrimSpace(pd.ArtifactID)] {
			out = append(out, pd)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
