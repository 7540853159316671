// Package cmd implements the command-line interface for slotbot.
//
// This package provides the following commands:
//   - run: Answer booking requests arriving over Signal
//   - chat: Talk to the booking dialogue on the terminal
//   - serve: Start the MCP server exposing the scheduling engine to AI assistants
//   - slots: Query availability once (list, check, next)
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
