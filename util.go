package hls

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
)

// Pretty renders any JSON-taggable value as indented JSON.
func Pretty(obj interface{}) string {
	j, err := json.MarshalIndent(obj, "", "    ")
	if err != nil {
		return fmt.Sprint(obj)
	}
	return string(j)
}

// PrettyYAML renders any JSON-taggable value as YAML, honoring the json
// struct tags.
func PrettyYAML(obj interface{}) string {
	y, err := yaml.Marshal(obj)
	if err != nil {
		return fmt.Sprint(obj)
	}
	return string(y)
}

func BaseFileName(path string) string {
	fname := filepath.Base(path)
	n := strings.LastIndex(fname, ".")
	if n < 1 {
		return fname
	}
	return fname[:n]
}

const BLACK = "\033[0;0m"
const RED = "\033[0;31m"
const YELLOW = "\033[0;33m"
const BLUE = "\033[94m"
const GREEN = "\033[92m"

// FormattedAnnotation renders a diagnostic with a few lines of source
// context, the offending span highlighted in color. With a negative
// contextSize, or when the source is unavailable, it falls back to the
// plain file:line:column form.
func FormattedAnnotation(source string, d Diagnostic, color string, contextSize int) string {
	highlight := color + "\033[1m"
	restore := BLACK + "\033[0m"
	prefix := fmt.Sprintf("%s: %s%s%s [%s]", d.Span, highlight, d.Message, restore, d.Code)
	if source == "" || contextSize < 0 {
		return prefix
	}
	lines := strings.Split(source, "\n")
	line := d.Span.Start.Line - 1
	if line < 0 || line >= len(lines) {
		return prefix
	}
	begin := max(0, line-contextSize)
	end := min(len(lines), line+contextSize+1)
	var buf strings.Builder
	for i := begin; i < end; i++ {
		text := lines[i]
		if i != line {
			fmt.Fprintf(&buf, "%3d\t%s\n", i+1, text)
			continue
		}
		runes := []rune(text)
		start := min(d.Span.Start.Column, len(runes))
		stop := len(runes)
		if d.Span.End.Line == d.Span.Start.Line {
			stop = min(max(d.Span.End.Column, start+1), len(runes))
		}
		fmt.Fprintf(&buf, "%3d\t%s%s%s%s%s\n",
			i+1, string(runes[:start]), highlight, string(runes[start:stop]), restore, string(runes[stop:]))
	}
	return prefix + "\n" + buf.String()
}
