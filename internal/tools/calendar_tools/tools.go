package calendar_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbot/internal/availability"
	"github.com/teemow/slotbot/internal/server"
)

const (
	slotLayout    = "Mon, Jan 2 2006 at 15:04"
	slotEndLayout = "15:04 MST"
)

// RegisterCalendarTools registers all scheduling tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	if sc.BookingEnabled() {
		if err := RegisterEventTools(s, sc); err != nil {
			return fmt.Errorf("failed to register event tools: %w", err)
		}
	}

	return nil
}

func formatSlot(slot availability.Slot) string {
	return fmt.Sprintf("%s to %s", slot.Start.Format(slotLayout), slot.End.Format(slotEndLayout))
}
