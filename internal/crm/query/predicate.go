package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Predicate is a WHERE clause fragment.
type Predicate interface {
	render(b *strings.Builder) error
}

// Date is a calendar date rendered as a SOQL date literal (YYYY-MM-DD).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the date part of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Literal renders a Go value as a SOQL literal.
func Literal(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return Quote(val), nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return "", fmt.Errorf("cannot render %v as a literal", val)
		}
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case time.Time:
		return val.UTC().Format("2006-01-02T15:04:05Z"), nil
	case Date:
		return val.String(), nil
	default:
		return "", fmt.Errorf("unsupported literal type %T", v)
	}
}

type comparison struct {
	field string
	op    string
	value any
}

func (c comparison) render(b *strings.Builder) error {
	if err := ValidateField(c.field); err != nil {
		return err
	}
	lit, err := Literal(c.value)
	if err != nil {
		return fmt.Errorf("field %s: %w", c.field, err)
	}
	b.WriteString(c.field)
	b.WriteByte(' ')
	b.WriteString(c.op)
	b.WriteByte(' ')
	b.WriteString(lit)
	return nil
}

// Eq matches field = value.
func Eq(field string, value any) Predicate { return comparison{field, "=", value} }

// Ne matches field != value.
func Ne(field string, value any) Predicate { return comparison{field, "!=", value} }

// Gt matches field > value.
func Gt(field string, value any) Predicate { return comparison{field, ">", value} }

// Lt matches field < value.
func Lt(field string, value any) Predicate { return comparison{field, "<", value} }

// Like matches field LIKE pattern. The pattern is quoted and escaped; % and _
// keep their wildcard meaning.
func Like(field, pattern string) Predicate { return comparison{field, "LIKE", pattern} }

// IsNull matches field = null.
func IsNull(field string) Predicate { return comparison{field, "=", nil} }

// NotNull matches field != null.
func NotNull(field string) Predicate { return comparison{field, "!=", nil} }

type membership struct {
	field  string
	negate bool
	values []string
}

func (m membership) render(b *strings.Builder) error {
	if err := ValidateField(m.field); err != nil {
		return err
	}
	if len(m.values) == 0 {
		return fmt.Errorf("field %s: %w", m.field, ErrEmptyInSet)
	}
	b.WriteString(m.field)
	if m.negate {
		b.WriteString(" NOT IN (")
	} else {
		b.WriteString(" IN (")
	}
	for i, v := range m.values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Quote(v))
	}
	b.WriteByte(')')
	return nil
}

// In matches field IN ('v1','v2',...). Every value is rendered as a quoted literal.
func In(field string, values ...string) Predicate {
	return membership{field: field, values: values}
}

// NotIn matches field NOT IN ('v1',...).
func NotIn(field string, values ...string) Predicate {
	return membership{field: field, negate: true, values: values}
}

type junction struct {
	op    string
	preds []Predicate
}

func (j junction) render(b *strings.Builder) error {
	var parts []Predicate
	for _, p := range j.preds {
		if p != nil {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return fmt.Errorf("%s requires at least one predicate", j.op)
	case 1:
		return parts[0].render(b)
	}
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(j.op)
			b.WriteByte(' ')
		}
		_, nested := p.(junction)
		if nested {
			b.WriteByte('(')
		}
		if err := p.render(b); err != nil {
			return err
		}
		if nested {
			b.WriteByte(')')
		}
	}
	return nil
}

// And joins predicates with AND. Nil predicates are skipped.
func And(preds ...Predicate) Predicate { return junction{op: "AND", preds: preds} }

// Or joins predicates with OR. Nil predicates are skipped.
func Or(preds ...Predicate) Predicate { return junction{op: "OR", preds: preds} }

type negation struct {
	pred Predicate
}

func (n negation) render(b *strings.Builder) error {
	if n.pred == nil {
		return fmt.Errorf("NOT requires a predicate")
	}
	b.WriteString("NOT (")
	if err := n.pred.render(b); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

// Not negates a predicate.
func Not(pred Predicate) Predicate { return negation{pred: pred} }
