// Package api issues authenticated calls against the CRM data API.
//
// An Executor resolves credentials from a session.Store (cached in memory
// after the first read), attaches the bearer token, and on a 401 response
// runs exactly one refresh before retrying the request once. Non-success
// responses become *Error values carrying the remote's error messages; a
// 204 or empty body yields an empty result.
package api
