// Package session persists the CRM authentication session.
//
// A Session bundles the bearer access token, the optional refresh token, the
// instance URL that data calls are addressed to, and the issuance time the
// remote reported. Stores never surface malformed persisted state: a record
// that cannot be read, decrypted or parsed is reported as "no session".
package session
