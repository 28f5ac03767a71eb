// Package render draws a resolved dependency graph as a node-link diagram.
//
// [ToDOT] produces Graphviz DOT source with one box per resolved
// dependency and one arrow per descriptor declaration; [RenderSVG] lays it
// out in-process with go-graphviz:
//
//	dot := render.ToDOT(res, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// Direct dependencies hang off a root node named after the scope.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/depsync/pkg/deps"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the resolving repository and depth to node labels.
	Detailed bool
}

// ToDOT converts a resolution to Graphviz DOT.
//
// An edge that does not step exactly one level down points at a
// dependency an earlier declaration already pinned; it is drawn dashed.
func ToDOT(res *deps.Resolution, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	root := res.Scope.String()
	fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse, fillcolor=lightgrey];\n", root, root)

	depth := make(map[deps.Key]int, len(res.Dependencies))
	for _, r := range res.Dependencies {
		k := r.Dependency.Key()
		depth[k] = r.Depth
		fmt.Fprintf(&buf, "  %q [%s];\n", k.String(), strings.Join(fmtAttrs(r, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, r := range res.Direct() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", root, r.Dependency.Key().String())
	}
	for _, e := range res.Edges {
		from, ok := depth[e.From]
		if !ok {
			continue
		}
		to, ok := depth[e.To]
		if !ok {
			continue
		}
		if to != from+1 {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=grey];\n", e.From.String(), e.To.String())
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From.String(), e.To.String())
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(r deps.Resolved, detailed bool) string {
	label := r.Dependency.String()
	if !detailed {
		return label
	}
	parts := []string{fmt.Sprintf("depth: %d", r.Depth)}
	if r.Artifact.Repository != "" {
		parts = append(parts, "repository: "+r.Artifact.Repository)
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(r deps.Resolved, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(r, detailed))}
	if r.Depth == 0 {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the point-sized svg header with one whose
// width and height match the viewBox, so the image scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// Format is an output format of the graph command.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDOT, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (expected dot or svg)", s)
}

// Render produces the diagram of res in format f.
func Render(ctx context.Context, res *deps.Resolution, f Format, opts Options) ([]byte, error) {
	dot := ToDOT(res, opts)
	if f == FormatSVG {
		return RenderSVG(ctx, dot)
	}
	return []byte(dot), nil
}
