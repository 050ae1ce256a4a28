package query

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSearchFields is the projection BuildSearch returns for every type.
var DefaultSearchFields = []string{"Id", "Name", "Email"}

// Returning is one object clause of a search: Object(Fields...).
type Returning struct {
	Object string
	Fields []string
	Where  Predicate
	Limit  int
}

// BuildSearch renders a full-text search over all fields returning
// Id, Name and Email for each requested type, URL-encoded.
func BuildSearch(term string, types []string) (string, error) {
	returning := make([]Returning, 0, len(types))
	for _, t := range types {
		returning = append(returning, Returning{Object: t, Fields: DefaultSearchFields})
	}
	return BuildSearchReturning(term, returning, 0)
}

// BuildSearchReturning renders a full-text search with explicit projections.
// A limit of zero leaves the overall result size to the remote default.
func BuildSearchReturning(term string, returning []Returning, limit int) (string, error) {
	s, err := SearchString(term, returning, limit)
	if err != nil {
		return "", err
	}
	return Encode(s), nil
}

// SearchString renders the search without URL encoding.
func SearchString(term string, returning []Returning, limit int) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", ErrEmptyTerm
	}
	if len(returning) == 0 {
		return "", fmt.Errorf("search requires at least one object type")
	}

	var b strings.Builder
	b.WriteString("FIND {")
	b.WriteString(EscapeSearchTerm(term))
	b.WriteString("} IN ALL FIELDS RETURNING ")

	for i, r := range returning {
		if err := ValidateObject(r.Object); err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(r.Object)
		if len(r.Fields) == 0 {
			continue
		}
		b.WriteByte('(')
		for j, f := range r.Fields {
			if err := ValidateField(f); err != nil {
				return "", err
			}
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f)
		}
		if r.Where != nil {
			b.WriteString(" WHERE ")
			if err := r.Where.render(&b); err != nil {
				return "", err
			}
		}
		if r.Limit > 0 {
			b.WriteString(" LIMIT ")
			b.WriteString(strconv.Itoa(r.Limit))
		}
		b.WriteByte(')')
	}

	if limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	}
	return b.String(), nil
}
