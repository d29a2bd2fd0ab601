package hls

import (
	"strings"
)

// keywordDocs maps every keyword, operator, and primitive type tag to a
// short markdown description shown on hover.
var keywordDocs = map[string]string{
	// creation operations
	"AddN":      "**AddN\\<Type\\>** - Create a new node\n\n```helixql\nAddN<User>({name: \"Alice\"})\n```",
	"AddE":      "**AddE\\<Type\\>** - Create a new edge\n\n```helixql\nAddE<Follows>::From(user1)::To(user2)\n```",
	"AddV":      "**AddV\\<Type\\>** - Add a vector\n\n```helixql\nAddV<Document>(vector, {content: \"text\"})\n```",
	"BatchAddV": "**BatchAddV\\<Type\\>** - Add a batch of vectors",
	"SearchV":   "**SearchV** - Search for vectors",

	// traversal operations
	"Out":          "**Out\\<EdgeType\\>** - Traverse outgoing edges to connected nodes",
	"In":           "**In\\<EdgeType\\>** - Traverse incoming edges to connected nodes",
	"OutE":         "**OutE\\<EdgeType\\>** - Get outgoing edges",
	"InE":          "**InE\\<EdgeType\\>** - Get incoming edges",
	"FromN":        "**FromN** - Get the source node of an edge",
	"ToN":          "**ToN** - Get the target node of an edge",
	"ShortestPath": "**ShortestPath** - Find the shortest path between nodes",

	// filtering and conditions
	"WHERE":     "**WHERE** - Filter elements based on conditions\n\n```helixql\n::WHERE(_::{age}::GT(18))\n```",
	"PREFILTER": "**PREFILTER** - Apply a filter before vector search",
	"EXISTS":    "**EXISTS** - Check if traversal has results\n\n```helixql\nEXISTS(_::Out<Follows>)\n```",
	"AND":       "**AND** - Logical AND operation",
	"OR":        "**OR** - Logical OR operation",
	"NONE":      "**NONE** - The empty result",

	// comparison operations
	"GT":  "**GT** - Greater than",
	"GTE": "**GTE** - Greater than or equal",
	"LT":  "**LT** - Less than",
	"LTE": "**LTE** - Less than or equal",
	"EQ":  "**EQ** - Equal to",
	"NEQ": "**NEQ** - Not equal to",

	// other operations
	"COUNT":  "**COUNT** - Count the number of elements",
	"UPDATE": "**UPDATE** - Update properties of elements",
	"DROP":   "**DROP** - Delete elements from the graph",
	"RANGE":  "**RANGE** - Get a range of elements",
	"ID":     "**ID** - UUID identifier",

	// types
	"String":  "**String** - Text data type",
	"Boolean": "**Boolean** - True/false value",
	"I8":      "**I8** - 8-bit signed integer (-128 to 127)",
	"I16":     "**I16** - 16-bit signed integer",
	"I32":     "**I32** - 32-bit signed integer",
	"I64":     "**I64** - 64-bit signed integer",
	"U8":      "**U8** - 8-bit unsigned integer (0 to 255)",
	"U16":     "**U16** - 16-bit unsigned integer",
	"U32":     "**U32** - 32-bit unsigned integer",
	"U64":     "**U64** - 64-bit unsigned integer",
	"U128":    "**U128** - 128-bit unsigned integer",
	"F32":     "**F32** - 32-bit floating point",
	"F64":     "**F64** - 64-bit floating point",
	"Date":    "**Date** - Date/timestamp value",
	"Uuid":    "**Uuid** - UUID value",

	// keywords
	"QUERY":   "**QUERY** - Define a query function",
	"RETURN":  "**RETURN** - Specify query output",
	"FOR":     "**FOR** - Loop over a collection",
	"IN":      "**IN** - Part of FOR loop syntax",
	"INDEX":   "**INDEX** - Mark a field as indexed",
	"DEFAULT": "**DEFAULT** - Set default value for a field",
	"NOW":     "**NOW** - Current timestamp default",
	"N":       "**N\\<Type\\>** - Select nodes",
	"E":       "**E\\<Type\\>** - Select edges",
	"V":       "**V\\<Type\\>** - Select vectors",
}

// Hover returns a short markdown description for the identifier at the
// 0-based (line, column) position, or the empty string when the position
// is not on anything resolvable. Keywords and primitive types document
// themselves; other identifiers resolve against the schema registry,
// which may be nil.
func Hover(src string, line, column int, registry *SchemaRegistry) string {
	word := WordAt(src, line, column)
	if word == "" {
		return ""
	}
	if doc, ok := keywordDocs[word]; ok {
		return doc
	}
	if registry != nil {
		if decl := registry.FindAny(word); decl != nil {
			return Describe(decl)
		}
	}
	return ""
}

// WordAt extracts the identifier covering the 0-based (line, column)
// position, or "".
func WordAt(src string, line, column int) string {
	lines := strings.Split(src, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	runes := []rune(lines[line])
	if column < 0 || column > len(runes) {
		return ""
	}
	start := column
	if start > len(runes) {
		start = len(runes)
	}
	for start > 0 && isSymbolChar(runes[start-1]) {
		start--
	}
	end := column
	for end < len(runes) && isSymbolChar(runes[end]) {
		end++
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}
