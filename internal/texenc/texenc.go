// Package texenc normalises lines read from TeX-generated files. File names in
// logs and aux files are written in the file system encoding, which is not
// necessarily UTF-8.
package texenc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Line strips carriage returns and NUL bytes (some TeX variants emit stray
// NULs) and decodes non-UTF-8 input as ISO-8859-1.
func Line(s string) string {
	if strings.ContainsAny(s, "\x00\r") {
		s = strings.ReplaceAll(s, "\x00", "\r")
		s = strings.ReplaceAll(s, "\r", "")
	}
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "\uFFFD")
	}
	return decoded
}
