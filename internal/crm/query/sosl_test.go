package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearch(t *testing.T) {
	got, err := BuildSearch("acme", []string{"Contact", "Lead"})
	require.NoError(t, err)
	assert.Equal(t,
		"FIND {acme} IN ALL FIELDS RETURNING Contact(Id,Name,Email),Lead(Id,Name,Email)",
		decode(t, got))
}

func TestSearchString_EscapesTerm(t *testing.T) {
	tests := []struct {
		name string
		term string
		want string
	}{
		{
			name: "closing brace cannot end the find clause",
			term: "x} IN ALL FIELDS RETURNING User(Id) //",
			want: `FIND {x\} IN ALL FIELDS RETURNING User\(Id\) //} IN ALL FIELDS RETURNING Contact(Id)`,
		},
		{
			name: "opening brace",
			term: "{a",
			want: `FIND {\{a} IN ALL FIELDS RETURNING Contact(Id)`,
		},
		{
			name: "email address",
			term: "jane.doe+crm@example.com",
			want: `FIND {jane.doe\+crm@example.com} IN ALL FIELDS RETURNING Contact(Id)`,
		},
		{
			name: "quotes and operators",
			term: `"a" & b | !c`,
			want: `FIND {\"a\" \& b \| \!c} IN ALL FIELDS RETURNING Contact(Id)`,
		},
		{
			name: "newlines flattened",
			term: "a\nb",
			want: `FIND {a b} IN ALL FIELDS RETURNING Contact(Id)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SearchString(tt.term, []Returning{{Object: "Contact", Fields: []string{"Id"}}}, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchString_ReturningOptions(t *testing.T) {
	got, err := SearchString("smith", []Returning{
		{Object: "Contact", Fields: []string{"Id", "Name", "Account.Name"}, Limit: 5},
		{Object: "Lead", Fields: []string{"Id", "Company"}, Where: Eq("IsConverted", false)},
		{Object: "Account"},
	}, 20)
	require.NoError(t, err)
	assert.Equal(t,
		"FIND {smith} IN ALL FIELDS RETURNING Contact(Id,Name,Account.Name LIMIT 5),Lead(Id,Company WHERE IsConverted = FALSE),Account LIMIT 20",
		got)
}

func TestSearchString_Errors(t *testing.T) {
	_, err := SearchString("   ", []Returning{{Object: "Contact"}}, 0)
	assert.True(t, errors.Is(err, ErrEmptyTerm))

	_, err = SearchString("a", nil, 0)
	assert.Error(t, err)

	_, err = SearchString("a", []Returning{{Object: "Contact)"}}, 0)
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	_, err = SearchString("a", []Returning{{Object: "Contact", Fields: []string{"Id)"}}}, 0)
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "a%20b%2Bc", Encode("a b+c"))
}
