package signal_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbot/internal/server"
)

// RegisterSignalTools registers all Signal-related tools with the MCP server.
// Nothing is registered when no messenger is configured.
func RegisterSignalTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.Messenger() == nil {
		return nil
	}

	if err := RegisterSendTools(s, sc, !sc.BookingEnabled()); err != nil {
		return fmt.Errorf("failed to register send tools: %w", err)
	}
	return nil
}
