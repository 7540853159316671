// Package signal_tools provides MCP tools for messaging patients over Signal.
//
// signal_send_message sends a direct message through the Signal account the
// bot runs on, e.g. a reminder about an appointment booked with
// calendar_book_appointment. Without --yolo the tool is listed but refuses to
// send.
//
// Prerequisites:
// signal-cli must be installed and registered for the configured account.
// See the signal package documentation for setup instructions.
//
// Example MCP tool call:
//
//	{
//	  "tool": "signal_send_message",
//	  "arguments": {
//	    "recipient": "+5215512345678",
//	    "message": "Le recordamos su cita de mañana a las 11:00 hrs."
//	  }
//	}
package signal_tools
