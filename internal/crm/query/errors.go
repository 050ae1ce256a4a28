package query

import "errors"

var (
	// ErrInvalidIdentifier is returned for object or field names that do not
	// match the identifier grammar.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrEmptyTerm is returned when a search term is blank.
	ErrEmptyTerm = errors.New("search term is empty")

	// ErrEmptyInSet is returned for IN / NOT IN predicates without values.
	ErrEmptyInSet = errors.New("IN predicate requires at least one value")

	// ErrNoFields is returned when a query selects nothing.
	ErrNoFields = errors.New("query selects no fields")
)
