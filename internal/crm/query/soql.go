package query

import (
	"fmt"
	"strconv"
	"strings"
)

// OrderBy is one ORDER BY term.
type OrderBy struct {
	Field     string
	Desc      bool
	NullsLast bool
}

// Asc orders by field ascending.
func Asc(field string) OrderBy { return OrderBy{Field: field} }

// Desc orders by field descending.
func Desc(field string) OrderBy { return OrderBy{Field: field, Desc: true} }

// Query is a structured filter query over one object type.
type Query struct {
	Object  string
	Fields  []string
	Where   Predicate
	OrderBy []OrderBy
	Limit   int
	Offset  int
}

// String renders the query without URL encoding.
func (q Query) String() (string, error) {
	if err := ValidateObject(q.Object); err != nil {
		return "", err
	}
	if len(q.Fields) == 0 {
		return "", ErrNoFields
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	for i, f := range q.Fields {
		if err := ValidateField(f); err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f)
	}
	b.WriteString(" FROM ")
	b.WriteString(q.Object)

	if q.Where != nil {
		b.WriteString(" WHERE ")
		if err := q.Where.render(&b); err != nil {
			return "", err
		}
	}

	if len(q.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.OrderBy {
			if err := ValidateField(o.Field); err != nil {
				return "", err
			}
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(o.Field)
			if o.Desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
			if o.NullsLast {
				b.WriteString(" NULLS LAST")
			}
		}
	}

	if q.Limit < 0 || q.Offset < 0 {
		return "", fmt.Errorf("limit and offset must not be negative")
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(q.Offset))
	}
	return b.String(), nil
}

// Encode renders the query and URL-encodes it.
func (q Query) Encode() (string, error) {
	s, err := q.String()
	if err != nil {
		return "", err
	}
	return Encode(s), nil
}

// BuildFilteredQuery renders SELECT fields FROM objectType WHERE where
// [ORDER BY ordering] [LIMIT limit], URL-encoded. where may be nil and a
// limit of zero means no limit.
func BuildFilteredQuery(objectType string, fields []string, where Predicate, ordering []OrderBy, limit int) (string, error) {
	return Query{
		Object:  objectType,
		Fields:  fields,
		Where:   where,
		OrderBy: ordering,
		Limit:   limit,
	}.Encode()
}
