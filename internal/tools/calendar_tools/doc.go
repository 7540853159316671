// Package calendar_tools provides MCP (Model Context Protocol) tools for the
// scheduling engine.
//
// Read-only tools answer availability questions against the configured
// calendar and policy. calendar_book_appointment writes to the calendar and
// is only registered when booking is enabled.
package calendar_tools
