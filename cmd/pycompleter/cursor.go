package main

import (
	"unicode"
	"unicode/utf8"
)

// cursorContext finds the completion context ending at offset in src: the
// dotted identifiers already typed and the partial identifier under the
// cursor. For "os.path.jo|" it returns ["os", "path"] and "jo". ok is false
// when a dot follows something other than an identifier, as in "f().x|",
// where no static table applies.
func cursorContext(src []byte, offset int) (path []string, partial string, ok bool) {
	offset = min(max(offset, 0), len(src))

	start := identStart(src, offset)
	partial = string(src[start:offset])

	i := start
	for i > 0 && src[i-1] == '.' {
		j := identStart(src, i-1)
		if j == i-1 {
			return nil, "", false
		}
		path = append([]string{string(src[j : i-1])}, path...)
		i = j
	}
	return path, partial, true
}

func identStart(src []byte, end int) int {
	i := end
	for i > 0 {
		r, size := utf8.DecodeLastRune(src[:i])
		if !isIdentRune(r) {
			break
		}
		i -= size
	}
	return i
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
