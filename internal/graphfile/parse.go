package graphfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stepwire/internal/ctxlog"
	"github.com/roach88/stepwire/internal/ir"
)

// Format is a graph file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatFor picks the format from a file extension. JSON is read as YAML.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads and parses the graph file at path.
func Load(ctx context.Context, path string) (*ir.Graph, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph file: %w", err)
	}

	g, err := Parse(format, path, data)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("loaded graph file",
		"path", path, "format", format, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

// Parse parses data in the given format. name is used in error messages.
func Parse(format Format, name string, data []byte) (*ir.Graph, error) {
	switch format {
	case FormatYAML:
		return ParseYAML(name, data)
	case FormatHCL:
		return ParseHCL(name, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

type graphFile struct {
	Name  string     `yaml:"name"`
	Nodes []nodeFile `yaml:"nodes"`
	Edges []edgeFile `yaml:"edges"`
}

type nodeFile struct {
	Name     string   `yaml:"name"`
	StepType string   `yaml:"step_type"`
	JobType  string   `yaml:"job_type"`
	After    []string `yaml:"after"`
}

type edgeFile struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ParseYAML parses a YAML (or JSON) graph document.
func ParseYAML(name string, data []byte) (*ir.Graph, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	if err := ValidateDocument(doc); err != nil {
		return nil, withFile(err, name)
	}

	var f graphFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	return f.graph(), nil
}

// hclGraphFile is the top-level body of an HCL graph file.
type hclGraphFile struct {
	Name  string    `hcl:"name,optional"`
	Nodes []hclNode `hcl:"node,block"`
	Edges []hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	Name     string   `hcl:"name,label"`
	StepType string   `hcl:"step_type"`
	JobType  string   `hcl:"job_type,optional"`
	After    []string `hcl:"after,optional"`
}

type hclEdge struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// ParseHCL parses an HCL graph document.
func ParseHCL(name string, data []byte) (*ir.Graph, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, &ParseError{File: name, Diags: diags}
	}

	var root hclGraphFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, &ParseError{File: name, Diags: diags}
	}

	f := graphFile{Name: root.Name}
	for _, n := range root.Nodes {
		f.Nodes = append(f.Nodes, nodeFile(n))
	}
	for _, e := range root.Edges {
		f.Edges = append(f.Edges, edgeFile(e))
	}
	if err := ValidateDocument(f.document()); err != nil {
		return nil, withFile(err, name)
	}
	return f.graph(), nil
}

// graph converts the file form to the compiler input. Edges listed under a
// node's after follow the explicit edges, in node order.
func (f *graphFile) graph() *ir.Graph {
	g := &ir.Graph{Name: f.Name, Nodes: []ir.StepNode{}, Edges: []ir.Edge{}}
	for _, n := range f.Nodes {
		g.Nodes = append(g.Nodes, ir.StepNode{Name: n.Name, StepType: n.StepType, JobType: n.JobType})
	}
	for _, e := range f.Edges {
		g.Edges = append(g.Edges, ir.Edge{From: e.From, To: e.To})
	}
	for _, n := range f.Nodes {
		for _, from := range n.After {
			g.Edges = append(g.Edges, ir.Edge{From: from, To: n.Name})
		}
	}
	return g
}

// document renders the file form in the generic shape the schema validator
// expects.
func (f *graphFile) document() map[string]any {
	nodes := make([]any, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		node := map[string]any{"name": n.Name, "step_type": n.StepType}
		if n.JobType != "" {
			node["job_type"] = n.JobType
		}
		if n.After != nil {
			after := make([]any, len(n.After))
			for i, a := range n.After {
				after[i] = a
			}
			node["after"] = after
		}
		nodes = append(nodes, node)
	}
	edges := make([]any, 0, len(f.Edges))
	for _, e := range f.Edges {
		edges = append(edges, map[string]any{"from": e.From, "to": e.To})
	}

	doc := map[string]any{"nodes": nodes, "edges": edges}
	if f.Name != "" {
		doc["name"] = f.Name
	}
	return doc
}

func withFile(err error, name string) error {
	var se *SchemaError
	if errors.As(err, &se) {
		se.File = name
	}
	return err
}
