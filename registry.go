package hls

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaRegistry is the resolved table of every schema declaration visible
// to a workspace. It is built in two passes (collect, then resolve edge
// endpoints) and is immutable afterwards: a rebuild produces a fresh
// registry, so concurrent readers never see a half-built table.
type SchemaRegistry struct {
	nodes   map[string]*SchemaDecl
	edges   map[string]*SchemaDecl
	vectors map[string]*SchemaDecl

	// per-node direction indexes so the validator resolves Out/In in O(1)
	outbound map[string][]*SchemaDecl // node name -> edges with From == node
	inbound  map[string][]*SchemaDecl // node name -> edges with To == node
}

// BuildRegistry aggregates the schema declarations of all given files.
// Pass 1 collects the (kind, name) table, reporting DuplicateSchema for a
// name declared twice within one kind (the first declaration wins, the
// diagnostic points at the later one). Pass 2 resolves every edge's From
// and To against the declared node types and checks property types,
// reporting UnknownType per unresolved reference. Forward references
// across files are legal, which is why resolution waits for pass 2.
func BuildRegistry(files ...*File) (*SchemaRegistry, []Diagnostic) {
	reg := &SchemaRegistry{
		nodes:    make(map[string]*SchemaDecl),
		edges:    make(map[string]*SchemaDecl),
		vectors:  make(map[string]*SchemaDecl),
		outbound: make(map[string][]*SchemaDecl),
		inbound:  make(map[string][]*SchemaDecl),
	}
	var diags []Diagnostic

	for _, file := range files {
		for _, decl := range file.Schemas {
			table := reg.table(decl.Kind)
			if prev, ok := table[decl.Name]; ok {
				diags = append(diags, errorDiag(decl.NameSpan, CodeDuplicateSchema,
					"%s type %s is already declared at %s", decl.Kind.Describe(), decl.Name, prev.NameSpan))
				continue
			}
			table[decl.Name] = decl
		}
	}

	for _, decl := range reg.edges {
		if _, ok := reg.nodes[decl.From]; !ok {
			diags = append(diags, errorDiag(decl.FromSpan, CodeUnknownType,
				"unknown node type %s in From of edge %s", decl.From, decl.Name))
		} else {
			reg.outbound[decl.From] = append(reg.outbound[decl.From], decl)
		}
		if _, ok := reg.nodes[decl.To]; !ok {
			diags = append(diags, errorDiag(decl.ToSpan, CodeUnknownType,
				"unknown node type %s in To of edge %s", decl.To, decl.Name))
		} else {
			reg.inbound[decl.To] = append(reg.inbound[decl.To], decl)
		}
	}

	for _, table := range []map[string]*SchemaDecl{reg.nodes, reg.edges, reg.vectors} {
		for _, decl := range table {
			for _, prop := range decl.Properties {
				if !IsPrimitiveType(prop.Type.Name) {
					diags = append(diags, errorDiag(prop.Type.Span, CodeUnknownType,
						"unknown type %s for property %s of %s type %s",
						prop.Type, prop.Name, decl.Kind.Describe(), decl.Name))
				}
			}
		}
	}

	for _, edges := range reg.outbound {
		sortEdges(edges)
	}
	for _, edges := range reg.inbound {
		sortEdges(edges)
	}

	SortDiagnostics(diags)
	return reg, diags
}

func sortEdges(edges []*SchemaDecl) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].Name < edges[j].Name })
}

func (reg *SchemaRegistry) table(kind SchemaKind) map[string]*SchemaDecl {
	switch kind {
	case KindNode:
		return reg.nodes
	case KindEdge:
		return reg.edges
	case KindVector:
		return reg.vectors
	}
	return nil
}

// Find returns the declaration for (kind, name), or nil.
func (reg *SchemaRegistry) Find(kind SchemaKind, name string) *SchemaDecl {
	if table := reg.table(kind); table != nil {
		return table[name]
	}
	return nil
}

func (reg *SchemaRegistry) FindNode(name string) *SchemaDecl {
	return reg.nodes[name]
}

func (reg *SchemaRegistry) FindEdge(name string) *SchemaDecl {
	return reg.edges[name]
}

func (reg *SchemaRegistry) FindVector(name string) *SchemaDecl {
	return reg.vectors[name]
}

// FindAny looks the name up across all three kinds, nodes first. Used by
// hover, where the kind is not known from context.
func (reg *SchemaRegistry) FindAny(name string) *SchemaDecl {
	if d := reg.nodes[name]; d != nil {
		return d
	}
	if d := reg.edges[name]; d != nil {
		return d
	}
	return reg.vectors[name]
}

// OutEdges returns the edges whose From endpoint is the named node type.
func (reg *SchemaRegistry) OutEdges(nodeName string) []*SchemaDecl {
	return reg.outbound[nodeName]
}

// InEdges returns the edges whose To endpoint is the named node type.
func (reg *SchemaRegistry) InEdges(nodeName string) []*SchemaDecl {
	return reg.inbound[nodeName]
}

// NodeNames returns the declared node type names, sorted.
func (reg *SchemaRegistry) NodeNames() []string {
	return sortedKeys(reg.nodes)
}

// EdgeNames returns the declared edge type names, sorted.
func (reg *SchemaRegistry) EdgeNames() []string {
	return sortedKeys(reg.edges)
}

// VectorNames returns the declared vector type names, sorted.
func (reg *SchemaRegistry) VectorNames() []string {
	return sortedKeys(reg.vectors)
}

func sortedKeys(table map[string]*SchemaDecl) []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe renders a one-line summary of a declaration, shared by hover
// and the CLI.
func Describe(decl *SchemaDecl) string {
	var props []string
	for _, p := range decl.Properties {
		props = append(props, fmt.Sprintf("%s: %s", p.Name, p.Type))
	}
	body := "with no properties"
	if len(props) > 0 {
		body = "with properties " + strings.Join(props, ", ")
	}
	switch decl.Kind {
	case KindEdge:
		return fmt.Sprintf("Edge type %s (From: %s, To: %s) %s", decl.Name, decl.From, decl.To, body)
	case KindVector:
		return fmt.Sprintf("Vector type %s %s", decl.Name, body)
	}
	return fmt.Sprintf("Node type %s %s", decl.Name, body)
}
