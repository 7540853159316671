package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbot/internal/instrumentation"
	"github.com/teemow/slotbot/internal/server"
)

// ToolHandler is the signature mcp-go expects for tool callbacks.
type ToolHandler = mcpserver.ToolHandlerFunc

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		switch {
		case err != nil:
			invocation.Complete(false, err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			resultErr := errors.New(resultText(result))
			invocation.Complete(false, resultErr)
			instrumentation.SetSpanError(span, resultErr)
		default:
			invocation.Complete(true, nil)
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), duration)
		sc.AuditLogger().LogToolInvocation(invocation)

		return result, err
	}
}

// resultText returns the first text block of a tool result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		switch text := c.(type) {
		case mcp.TextContent:
			return text.Text
		case *mcp.TextContent:
			return text.Text
		}
	}
	return "tool returned an error result"
}
