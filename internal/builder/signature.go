package builder

import (
	"strings"

	"github.com/jward/pycompleter/internal/syntax"
)

// RenderSignature formats a parameter list for display: each parameter is its
// star prefix followed by its name, bracketed when it has a default, and the
// whole list is comma-joined inside parentheses. For example
// (self, x, y=1, *args) renders as "(self,x,[y],*args)".
func RenderSignature(params []syntax.Param) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		if p.HasDefault {
			b.WriteByte('[')
		}
		b.WriteString(strings.Repeat("*", p.Stars))
		b.WriteString(p.Name)
		if p.HasDefault {
			b.WriteByte(']')
		}
	}
	b.WriteByte(')')
	return b.String()
}
