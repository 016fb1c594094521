package location

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// noiseWords не несут различающей информации в названиях поселков и комплексов.
var noiseWords = []string{"country club", "golf club", "estates", "community", "the"}

// streetSuffixes приводит типы улиц и направления к сокращенной форме.
var streetSuffixes = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"av":        "ave",
	"boulevard": "blvd",
	"highway":   "hwy",
	"road":      "rd",
	"drive":     "dr",
	"lane":      "ln",
	"court":     "ct",
	"place":     "pl",
	"parkway":   "pkwy",
	"circle":    "cir",
	"trail":     "trl",
	"way":       "way",
	"north":     "n",
	"south":     "s",
	"east":      "e",
	"west":      "w",
}

// NormalizeName приводит название к нижнему регистру без диакритики,
// заменяя пунктуацию пробелами.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		if r == '\'' {
			return -1
		}
		return ' '
	}, folded)

	return strings.Join(strings.Fields(folded), " ")
}

// compactName убирает шумовые слова и пробелы для нечеткого сравнения.
func compactName(normalized string) string {
	padded := " " + normalized + " "
	for _, w := range noiseWords {
		padded = strings.ReplaceAll(padded, " "+w+" ", " ")
	}
	return strings.ReplaceAll(padded, " ", "")
}

// NormalizeStreet нормализует название улицы и сокращает типы улиц.
func NormalizeStreet(s string) string {
	words := strings.Fields(NormalizeName(s))
	for i, w := range words {
		if short, ok := streetSuffixes[w]; ok {
			words[i] = short
		}
	}
	return strings.Join(words, " ")
}
