// Package common provides shared helpers for the MCP tool implementations:
// the instrumented handler wrapper, argument parsing and result formatting.
package common
