// Package crm_tools exposes the CRM domain operations as MCP tools.
//
// Read tools (search, related records, record lookup, connection test) are
// always registered. Tools that create, change or delete CRM data are only
// registered when the server runs with read-only mode disabled.
//
// Tools that act on a mail item accept either a Gmail messageId, resolved
// through the server's Gmail access, or the message fields directly.
package crm_tools
