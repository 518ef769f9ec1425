package vocabulary

import (
	"fmt"
	"strings"
)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
	"\t", `\t`,
)

// EscapeLiteral escapes a string for embedding in a quoted Turtle literal
// so that quoting and control characters cannot corrupt the resource's
// structured syntax.
func EscapeLiteral(value string) string {
	return literalEscaper.Replace(value)
}

// EscapeIRI percent-encodes the characters Turtle forbids inside <...>
// IRI references. Discovered URLs are third-party data; an unescaped ">"
// would otherwise break out of the reference and corrupt the resource.
func EscapeIRI(iri string) string {
	var b strings.Builder
	b.Grow(len(iri))
	for i := 0; i < len(iri); i++ {
		c := iri[i]
		if c <= 0x20 || strings.IndexByte("<>\"{}|^`\\", c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
