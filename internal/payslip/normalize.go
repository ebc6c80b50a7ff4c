package payslip

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	reWhitespace    = regexp.MustCompile(`\s+`)
	reTrailingPunct = regexp.MustCompile(`[:\-_]+$`)
)

// CleanCurrencyValue parses a Brazilian-formatted amount such as
// "R$ 1.234,56". Unparsable input yields zero.
func CleanCurrencyValue(s string) decimal.Decimal {
	s = strings.Map(func(r rune) rune {
		if r == 'R' || r == '$' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		i := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:i], ".", "") + s[i:]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CleanCPF formats an 11-digit CPF as XXX.XXX.XXX-XX. Any other input is
// returned trimmed.
func CleanCPF(s string) string {
	digits := onlyDigits(s)
	if len(digits) != 11 {
		return strings.TrimSpace(s)
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// CleanTextField collapses whitespace, strips trailing ':', '-' and '_'
// runs, and title-cases the words.
func CleanTextField(s string) string {
	s = reWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.TrimSpace(reTrailingPunct.ReplaceAllString(s, ""))
	return titleCase(s)
}

// titleCase upper-cases every letter that follows a non-letter and lowers
// the rest, so "ACME S.A." becomes "Acme S.A." and "D'AVILA" "D'Avila".
func titleCase(s string) string {
	// Casers keep state; one per call.
	lower := cases.Lower(language.BrazilianPortuguese).String(s)
	var b strings.Builder
	b.Grow(len(lower))
	prevLetter := false
	for _, r := range lower {
		if unicode.IsLetter(r) {
			if !prevLetter {
				r = unicode.ToTitle(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
