package hls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnparseCanonicalForm(t *testing.T) {
	file := parseClean(t, "sample.hx", sampleSource)
	out := Unparse(file)
	assert.Contains(t, out, "N::User {\n")
	assert.Contains(t, out, "    name: String INDEX,\n")
	assert.Contains(t, out, "    From: User,\n")
	assert.Contains(t, out, "        at: Date DEFAULT NOW\n")
	assert.Contains(t, out, "QUERY postsBy(userName: String) =>\n")
	assert.Contains(t, out, "// a person\n")
}

// Unparse output is a fixed point: parsing the canonical form and
// unparsing again reproduces it byte for byte.
func TestUnparseRoundTrip(t *testing.T) {
	sources := []string{
		sampleSource,
		"QUERY q(ids: [ID], n: I64) =>\n    RETURN N<User>::RANGE(0, n)::!{age}\n",
		"QUERY q() =>\n    u <- AddN<User>({name: \"Alice\", age: 30})\n    RETURN u::id\n",
		"QUERY q() =>\n    DROP N<User>::WHERE(EXISTS(_::Out<Wrote>))\n",
	}
	for _, src := range sources {
		file, diags := ParseString("t.hx", src)
		require.Empty(t, diags)
		canonical := Unparse(file)

		again, diags := ParseString("t.hx", canonical)
		require.Empty(t, diags, "canonical form must parse cleanly:\n%s", canonical)
		assert.Equal(t, canonical, Unparse(again))
	}
}

func TestUnparseExprForms(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"N<User>", "N<User>"},
		{"N", "N"},
		{"N<User>::Out<Wrote>::COUNT", "N<User>::Out<Wrote>::COUNT"},
		{"N<User>::{name, age}", "N<User>::{name, age}"},
		{"N<User>::!{age}", "N<User>::!{age}"},
		{"AddN<User>({name: \"x\"})", `AddN<User>({name: "x"})`},
		{"N<User>::WHERE(_::{age}::GT(18))", "N<User>::WHERE(_::{age}::GT(18))"},
		{"EXISTS(_::Out<Wrote>)", "EXISTS(_::Out<Wrote>)"},
		{"NONE", "NONE"},
		{"-1.5", "-1.5"},
	}
	for _, tc := range cases {
		file, diags := ParseString("t.hx", "QUERY q() =>\n    RETURN "+tc.src+"\n")
		require.Empty(t, diags, tc.src)
		expr := file.Queries[0].Statements[0].Return.Exprs[0]
		assert.Equal(t, tc.want, UnparseExpr(expr))
	}
}

func TestUnparseEmptyArgListOmitted(t *testing.T) {
	// N<User>() and N<User> unparse identically; the fixed point ignores
	// empty argument lists
	file, diags := ParseString("t.hx", "QUERY q() =>\n    RETURN N<User>()\n")
	require.Empty(t, diags)
	expr := file.Queries[0].Statements[0].Return.Exprs[0]
	assert.Equal(t, "N<User>", UnparseExpr(expr))
}

func TestUnparseStatements(t *testing.T) {
	file := parseClean(t, "t.hx", "QUERY q() =>\n    u <- N<User>\n    RETURN u, u::COUNT\n")
	stmts := file.Queries[0].Statements
	assert.Equal(t, "u <- N<User>", UnparseStatement(stmts[0]))
	assert.Equal(t, "RETURN u, u::COUNT", UnparseStatement(stmts[1]))
}
