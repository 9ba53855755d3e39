// Package names canonicalizes German district and neighborhood names so
// datasets from different sources join on a stable key.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// umlautReplacer folds umlauts and eszett to ASCII digraphs before generic
// diacritic stripping, which would otherwise turn "ö" into "o" and break
// joins against sources that spell "oe".
var umlautReplacer = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"ß", "ss",
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Canon returns the canonical join key for a region name: lowercased,
// umlauts folded to digraphs, remaining diacritics stripped, and everything
// except letters and digits removed.
func Canon(name string) string {
	s := umlautReplacer.Replace(strings.TrimSpace(name))
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
