package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArgs(t *testing.T) {
	args := map[string]any{"term": "  acme ", "n": 3.0, "flag": true, "bad": 12}

	assert.Equal(t, "acme", StringArg(args, "term"))
	assert.Empty(t, StringArg(args, "bad"))
	assert.Empty(t, StringArg(args, "missing"))

	v, err := RequireString(args, "term")
	require.NoError(t, err)
	assert.Equal(t, "acme", v)
	_, err = RequireString(args, "missing")
	assert.EqualError(t, err, "missing is required")

	assert.Equal(t, 3, IntArg(args, "n", 10))
	assert.Equal(t, 10, IntArg(args, "missing", 10))
	assert.True(t, BoolArg(args, "flag", false))
	assert.True(t, BoolArg(args, "missing", true))
}

func TestListArg(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{name: "comma separated", value: "a@x.test, b@x.test,", want: []string{"a@x.test", "b@x.test"}},
		{name: "array", value: []any{"a", " b ", 3, ""}, want: []string{"a", "b"}},
		{name: "string slice", value: []string{"a"}, want: []string{"a"}},
		{name: "absent", value: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ListArg(map[string]any{"k": tt.value}, "k"))
		})
	}
}

func TestTimeArg(t *testing.T) {
	got, err := TimeArg(map[string]any{"d": "2024-05-01"}, "d")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *got)

	got, err = TimeArg(map[string]any{"d": "2024-05-01T10:00:00Z"}, "d")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	got, err = TimeArg(map[string]any{}, "d")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = TimeArg(map[string]any{"d": "tomorrow"}, "d")
	assert.ErrorContains(t, err, "must be an RFC 3339 timestamp")
}

func TestObjectArg(t *testing.T) {
	obj, err := ObjectArg(map[string]any{"f": map[string]any{"Title": "CTO"}}, "f")
	require.NoError(t, err)
	assert.Equal(t, "CTO", obj["Title"])

	_, err = ObjectArg(map[string]any{}, "f")
	assert.EqualError(t, err, "f is required")
	_, err = ObjectArg(map[string]any{"f": map[string]any{}}, "f")
	assert.EqualError(t, err, "f cannot be empty")
	_, err = ObjectArg(map[string]any{"f": "x"}, "f")
	assert.EqualError(t, err, "f must be an object")
}
