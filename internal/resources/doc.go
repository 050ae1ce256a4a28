// Package resources provides MCP resources for exposing CRM session data.
// Resources are read-only data sources that MCP clients can fetch to learn
// whether the server is signed in and which CRM user and organization the
// tools act as. Tokens are never exposed.
package resources
