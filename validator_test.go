package hls

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validateQuerySource parses a query against the sample schema and
// returns the semantic diagnostics.
func validateQuerySource(t *testing.T, querySrc string) []Diagnostic {
	t.Helper()
	schema := parseClean(t, "schema.hx", sampleSource)
	reg, regDiags := BuildRegistry(schema)
	require.Empty(t, regDiags)
	file, parseDiags := ParseString("query.hx", querySrc)
	require.Empty(t, parseDiags, "fixture must parse cleanly")
	return Validate(file, reg)
}

func TestValidateCleanQuery(t *testing.T) {
	diags := validateQuerySource(t, `QUERY postsBy(userName: String) =>
    user <- N<User>::WHERE(_::{name}::EQ(userName))
    RETURN user::Out<Wrote>::{title}
`)
	assert.Empty(t, diags)
}

func TestValidateUnknownFieldInCreation(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    u <- AddN<User>({nam: "Alice"})
    RETURN u
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownField, diags[0].Code)
	assert.Contains(t, diags[0].Message, "unknown field nam on node type User")
}

func TestValidateUnknownEdgeType(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN N<User>::Out<Follows>
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownEdgeType, diags[0].Code)
	assert.Contains(t, diags[0].Message, "unknown edge type Follows")
}

func TestValidateTraversalDirection(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN N<Post>::Out<Wrote>
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeTypeMismatch, diags[0].Code)
	assert.Contains(t, diags[0].Message, "edge Wrote starts at User, not Post")
}

func TestValidateInboundTraversal(t *testing.T) {
	// In follows the edge backwards, so Post::In<Wrote> reaches User
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN N<Post>::In<Wrote>::{name}
`)
	assert.Empty(t, diags)
}

func TestValidateUnknownSuppression(t *testing.T) {
	// one unknown type produces exactly one diagnostic, not a cascade
	// from every downstream step
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN N<Nobody>::Out<Wrote>::{name}::COUNT
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownType, diags[0].Code)
}

func TestValidateUnknownIdentifier(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN nobody
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownIdentifier, diags[0].Code)
}

func TestValidateUnknownParamType(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q(u: Widget) =>
    RETURN u
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownType, diags[0].Code)
	assert.Contains(t, diags[0].Message, "parameter u")
}

func TestValidateTypeMismatchInObject(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    u <- AddN<User>({age: "thirty"})
    RETURN u
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeTypeMismatch, diags[0].Code)
	assert.Contains(t, diags[0].Message, "cannot assign String to property age of type I32")
}

func TestValidateNumberLiteralsFitAnyNumericType(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    u <- AddN<User>({age: 30})
    RETURN u
`)
	assert.Empty(t, diags)
}

func TestValidateUnknownFieldInProjection(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN N<User>::{name, nickname}
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownField, diags[0].Code)
	assert.Contains(t, diags[0].Message, "nickname")
}

func TestValidateImplicitIDField(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN N<User>::{id, name}, N<User>::id
`)
	assert.Empty(t, diags)
}

func TestValidateAnonymousSource(t *testing.T) {
	// a bare N is valid and exempt from field checks
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN N::{whatever}
`)
	assert.Empty(t, diags)
}

func TestValidateEndpointSteps(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN E<Wrote>::FromN::{name}, E<Wrote>::ToN::{title}
`)
	assert.Empty(t, diags)
}

func TestValidateEndpointOnNonEdge(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN N<User>::FromN
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeTypeMismatch, diags[0].Code)
	assert.Contains(t, diags[0].Message, "FromN requires an edge")
}

func TestValidateUnknownFunction(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN N<User>::WHERE(MAYBE(_::{age}))
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownIdentifier, diags[0].Code)
	assert.Contains(t, diags[0].Message, "unknown function")
}

func TestValidateDropWithPredicate(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    DROP N<User>::WHERE(_::{age}::LT(18))
`)
	assert.Empty(t, diags)
}

func TestValidateUpdateChecksObject(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    RETURN N<User>::UPDATE({nam: "x"})
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownField, diags[0].Code)
}

func TestInferredResultTypes(t *testing.T) {
	schema := parseClean(t, "schema.hx", sampleSource)
	reg, _ := BuildRegistry(schema)

	cases := []struct {
		src  string
		want ResultType
	}{
		{"N<User>", ResultType{Class: ClassNode, Name: "User", Collection: true}},
		{"N<User>::Out<Wrote>", ResultType{Class: ClassNode, Name: "Post", Collection: true}},
		{"N<User>::OutE<Wrote>", ResultType{Class: ClassEdge, Name: "Wrote", Collection: true}},
		{"N<User>::COUNT", ResultType{Class: ClassScalar, Name: "I64"}},
		{"N<User>::ID", ResultType{Class: ClassScalar, Name: "ID"}},
		{"N<User>::name", ResultType{Class: ClassScalar, Name: "String", Collection: true}},
		{"AddN<User>({name: \"x\"})", ResultType{Class: ClassNode, Name: "User"}},
		{"SearchV<Doc>", ResultType{Class: ClassVector, Name: "Doc", Collection: true}},
		{"E<Wrote>::ToN", ResultType{Class: ClassNode, Name: "Post", Collection: true}},
		{"42", ResultType{Class: ClassScalar, Name: "Number"}},
		{"\"s\"", ResultType{Class: ClassScalar, Name: "String"}},
		{"true", ResultType{Class: ClassScalar, Name: "Boolean"}},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			file, diags := ParseString("q.hx", fmt.Sprintf("QUERY q() =>\n    RETURN %s\n", tc.src))
			require.Empty(t, diags)
			v := NewValidator(reg)
			got := v.Infer(file.Queries[0].Statements[0].Return.Exprs[0], map[string]ResultType{})
			assert.Empty(t, v.Diagnostics())
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateUnusedParameterWarning(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q(limit: I64) =>
    RETURN N<User>
`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnusedParameter, diags[0].Code)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.False(t, HasErrors(diags))
}

func TestValidateAssignmentBinding(t *testing.T) {
	diags := validateQuerySource(t, `QUERY q() =>
    users <- N<User>
    RETURN users::Out<Wrote>
`)
	assert.Empty(t, diags)
}
