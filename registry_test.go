package hls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseClean(t *testing.T, name, src string) *File {
	t.Helper()
	file, diags := ParseString(name, src)
	require.Empty(t, diags, "fixture must parse cleanly")
	return file
}

func TestBuildRegistryResolvesEdges(t *testing.T) {
	file := parseClean(t, "schema.hx", sampleSource)
	reg, diags := BuildRegistry(file)
	require.Empty(t, diags)

	assert.Equal(t, []string{"Post", "User"}, reg.NodeNames())
	assert.Equal(t, []string{"Wrote"}, reg.EdgeNames())
	assert.Equal(t, []string{"Doc"}, reg.VectorNames())

	require.NotNil(t, reg.FindNode("User"))
	require.NotNil(t, reg.FindEdge("Wrote"))
	require.NotNil(t, reg.FindVector("Doc"))
	assert.Nil(t, reg.FindNode("Wrote"))

	out := reg.OutEdges("User")
	require.Len(t, out, 1)
	assert.Equal(t, "Wrote", out[0].Name)
	in := reg.InEdges("Post")
	require.Len(t, in, 1)
	assert.Equal(t, "Wrote", in[0].Name)
	assert.Empty(t, reg.OutEdges("Post"))
}

func TestBuildRegistryAcrossFiles(t *testing.T) {
	// forward references across files resolve: the edge file comes first
	edges := parseClean(t, "edges.hx", `E::Knows {
    From: Person,
    To: Person,
    Properties: {}
}
`)
	nodes := parseClean(t, "nodes.hx", `N::Person {
    name: String
}
`)
	reg, diags := BuildRegistry(edges, nodes)
	require.Empty(t, diags)
	assert.Len(t, reg.OutEdges("Person"), 1)
	assert.Len(t, reg.InEdges("Person"), 1)
}

func TestBuildRegistryDuplicateSchema(t *testing.T) {
	first := parseClean(t, "a.hx", `N::User {
    name: String
}
`)
	second := parseClean(t, "b.hx", `N::User {
    email: String
}
`)
	reg, diags := BuildRegistry(first, second)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeDuplicateSchema, diags[0].Code)
	assert.Equal(t, "b.hx", diags[0].Span.Filename)
	// first declaration wins
	decl := reg.FindNode("User")
	require.NotNil(t, decl)
	assert.Equal(t, "name", decl.Properties[0].Name)
}

func TestBuildRegistrySameNameDifferentKind(t *testing.T) {
	// duplicates are per kind; a node and a vector may share a name
	file := parseClean(t, "a.hx", `N::Item {
    name: String
}

V::Item {
    content: String
}
`)
	_, diags := BuildRegistry(file)
	assert.Empty(t, diags)
}

func TestBuildRegistryUnresolvedEndpoints(t *testing.T) {
	file := parseClean(t, "a.hx", `E::Likes {
    From: User,
    To: Post,
    Properties: {}
}
`)
	reg, diags := BuildRegistry(file)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, CodeUnknownType, d.Code)
	}
	assert.Contains(t, diags[0].Message, "From of edge Likes")
	assert.Contains(t, diags[1].Message, "To of edge Likes")
	assert.Empty(t, reg.OutEdges("User"))
}

func TestBuildRegistryBadPropertyType(t *testing.T) {
	file := parseClean(t, "a.hx", `N::User {
    name: Strin
}
`)
	_, diags := BuildRegistry(file)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownType, diags[0].Code)
	assert.Contains(t, diags[0].Message, "Strin")
}

func TestDescribe(t *testing.T) {
	file := parseClean(t, "schema.hx", sampleSource)
	reg, _ := BuildRegistry(file)
	assert.Equal(t,
		"Node type User with properties name: String, age: I32",
		Describe(reg.FindNode("User")))
	assert.Equal(t,
		"Edge type Wrote (From: User, To: Post) with properties at: Date",
		Describe(reg.FindEdge("Wrote")))
	assert.Equal(t,
		"Vector type Doc with properties content: String",
		Describe(reg.FindVector("Doc")))
}
