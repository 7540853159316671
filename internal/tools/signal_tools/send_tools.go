package signal_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbot/internal/logging"
	"github.com/teemow/slotbot/internal/server"
	"github.com/teemow/slotbot/internal/tools/common"
)

// RegisterSendTools registers Signal message sending tools
func RegisterSendTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	sendMessageTool := mcp.NewTool("signal_send_message",
		mcp.WithDescription("Send a direct Signal message to a patient from the bot's account"),
		mcp.WithString("recipient",
			mcp.Required(),
			mcp.Description("Phone number of the recipient (e.g., '+5215512345678')"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Text message to send"),
		),
	)

	if readOnly {
		s.AddTool(sendMessageTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("Cannot send messages in read-only mode. Use --yolo flag to enable write operations."), nil
		})
		return nil
	}

	s.AddTool(sendMessageTool, common.InstrumentedToolHandler("signal_send_message", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendMessage(ctx, request, sc)
		}))
	return nil
}

// handleSendMessage handles the signal_send_message tool
func handleSendMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	recipient, ok := common.StringArg(args, "recipient")
	if !ok {
		return mcp.NewToolResultError("recipient is required"), nil
	}
	message, ok := common.StringArg(args, "message")
	if !ok {
		return mcp.NewToolResultError("message is required"), nil
	}

	if err := sc.Messenger().SendMessage(ctx, recipient, message); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send message: %v", err)), nil
	}

	sc.Logger().InfoContext(ctx, "signal message sent", logging.Session(recipient))
	return mcp.NewToolResultText(fmt.Sprintf("Message sent to %s", recipient)), nil
}
