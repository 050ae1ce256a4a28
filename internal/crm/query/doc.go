// Package query builds the two query dialects spoken by the CRM data API.
//
// Search builds full-text (SOSL) queries: FIND {term} IN ALL FIELDS RETURNING ...
// Query builds structured filter (SOQL) queries: SELECT ... FROM ... WHERE ...
//
// Values never reach a query unescaped. Object and field names are validated
// against the remote's identifier grammar, string literals are quoted with
// embedded quotes and backslashes escaped, and search terms have every
// reserved SOSL character escaped so they cannot close the FIND clause.
// Builders return the URL-encoded form ready for the ?q= parameter; they do
// not execute anything.
package query
