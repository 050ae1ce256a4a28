// Package batch runs one CRM operation over several record ids and reports
// per-id outcomes, so a single failed record does not fail the whole call.
package batch
