package query

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	identPattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	fieldPathPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)*$`)
)

// ValidateObject checks an object API name such as Contact or Invoice__c.
func ValidateObject(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: object %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// ValidateField checks a field path such as Email or Account.Name.
func ValidateField(name string) error {
	if !fieldPathPattern.MatchString(name) {
		return fmt.Errorf("%w: field %q", ErrInvalidIdentifier, name)
	}
	return nil
}

var soqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// EscapeString escapes s for use inside a single-quoted SOQL literal.
func EscapeString(s string) string {
	return soqlEscaper.Replace(s)
}

// Quote returns s as a single-quoted, escaped SOQL string literal.
func Quote(s string) string {
	return "'" + EscapeString(s) + "'"
}

// soslReserved lists characters with meaning inside a FIND clause.
const soslReserved = `?&|!{}[]()^~*:\"'+-`

// EscapeSearchTerm escapes every reserved SOSL character in term with a
// backslash. Braces cannot terminate the FIND clause after escaping.
func EscapeSearchTerm(term string) string {
	var b strings.Builder
	b.Grow(len(term) + 8)
	for _, r := range term {
		switch {
		case strings.ContainsRune(soslReserved, r):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Encode URL-encodes a query for the q parameter. Spaces become %20.
func Encode(q string) string {
	return strings.ReplaceAll(url.QueryEscape(q), "+", "%20")
}
