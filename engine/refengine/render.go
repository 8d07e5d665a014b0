package refengine

import (
	"fmt"
	"strings"

	"github.com/sass-embedded/compiler-host/engine"
)

// charsetBOM is the UTF-8 byte order mark Dart Sass's compressed output
// style leads with instead of an "@charset" rule, saving the bytes a
// declaration would otherwise cost.
const charsetBOM = "\uFEFF"

// render renders rules as CSS text, in the teacher's spirit of keeping
// formatting logic separate from parsing/evaluation: one function per
// concern, not one pass that does everything. When charset is set and the
// output contains non-ASCII text, a leading "@charset" rule (expanded
// style) or UTF-8 BOM (compressed style) is prepended so the CSS declares
// its own encoding.
func render(rules []rule, style engine.OutputStyle, charset bool) string {
	var css string
	if style == engine.OutputStyleCompressed {
		css = renderCompressed(rules)
	} else {
		css = renderExpanded(rules)
	}

	if !charset || isASCII(css) {
		return css
	}
	if style == engine.OutputStyleCompressed {
		return charsetBOM + css
	}
	return `@charset "UTF-8";` + "\n" + css
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

func renderExpanded(rules []rule) string {
	var b strings.Builder
	for _, r := range rules {
		fmt.Fprintf(&b, "%s {\n", r.selector)
		for _, d := range r.decls {
			fmt.Fprintf(&b, "  %s: %s;\n", d.property, d.value)
		}
		b.WriteString("}\n")
	}
	return b.String()
}

func renderCompressed(rules []rule) string {
	var b strings.Builder
	for _, r := range rules {
		b.WriteString(r.selector)
		b.WriteByte('{')
		for i, d := range r.decls {
			if i > 0 {
				b.WriteByte(';')
			}
			fmt.Fprintf(&b, "%s:%s", d.property, d.value)
		}
		b.WriteByte('}')
	}
	return b.String()
}
