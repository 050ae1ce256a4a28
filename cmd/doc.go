// Package cmd implements the command-line interface for inboxcrm.
//
// This package provides the following commands:
//   - login, logout, status: manage the CRM session
//   - gmail-login, gmail-logout: manage read-only Gmail access for mail items
//   - search, related, get, test-connection: read CRM data
//   - log-email, create-task, create-contact, create-lead: write CRM data
//   - serve: start the MCP server to provide tools for AI assistants
//   - generate-docs: generate markdown documentation for all MCP tools
//   - version: display version information
package cmd
