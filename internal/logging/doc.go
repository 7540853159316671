// Package logging provides structured logging utilities for slotbot.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (phone number anonymization, message bodies never logged)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "calendar.events.list")
//	logger.Info("reading busy intervals",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("user operation",
//	    logging.Session(sender))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Phone numbers are hashed to prevent PII leakage while allowing correlation
//   - Message bodies are reduced to a length indicator
package logging
