// Package logging provides structured logging utilities for inboxcrm.
//
// All components log through log/slog. This package centralizes the attribute
// names used across the CRM client, the CLI and the MCP tools so that log
// lines from different layers can be correlated.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "crm.related")
//	logger.Info("lookup finished",
//	    logging.Object("Contact"),
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("session refreshed",
//	    logging.UserHash(email),
//	    slog.String("access_token", logging.SanitizeToken(tok)))
//
// # Security Considerations
//
//   - Email addresses are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly, only their length
package logging
