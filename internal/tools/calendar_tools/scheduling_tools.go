package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbot/internal/availability"
	"github.com/teemow/slotbot/internal/server"
	"github.com/teemow/slotbot/internal/tools/batch"
	"github.com/teemow/slotbot/internal/tools/common"
)

const defaultMaxSlots = 10

// RegisterSchedulingTools registers the read-only availability tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	checkTool := mcp.NewTool("availability_check",
		mcp.WithDescription("Check whether an appointment can start at the given instant under the scheduling policy and the calendar"),
		mcp.WithString("instant",
			mcp.Required(),
			mcp.Description("Start of the appointment (RFC3339, or 'YYYY-MM-DDTHH:MM' in the policy time zone). A JSON array of instants checks each of them."),
		),
	)

	s.AddTool(checkTool, common.InstrumentedToolHandler("availability_check", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCheck(ctx, request, sc)
		}))

	nextSlotTool := mcp.NewTool("availability_next_slot",
		mcp.WithDescription("Find the earliest free appointment slot starting strictly after an instant, within the booking horizon"),
		mcp.WithString("after",
			mcp.Description("Search start (RFC3339, or 'YYYY-MM-DDTHH:MM' in the policy time zone). Defaults to now."),
		),
	)

	s.AddTool(nextSlotTool, common.InstrumentedToolHandler("availability_next_slot", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleNextSlot(ctx, request, sc)
		}))

	listSlotsTool := mcp.NewTool("availability_list_slots",
		mcp.WithDescription("List free appointment slots in a time range"),
		mcp.WithString("start",
			mcp.Description("Range start (RFC3339, or 'YYYY-MM-DDTHH:MM' in the policy time zone). Defaults to now."),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Range end (RFC3339, or 'YYYY-MM-DDTHH:MM' in the policy time zone)"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of slots to return (default: 10)"),
		),
	)

	s.AddTool(listSlotsTool, common.InstrumentedToolHandler("availability_list_slots", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListSlots(ctx, request, sc)
		}))

	return nil
}

func handleCheck(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	instants, err := batch.ParseStringOrArray(request.GetArguments()["instant"], "instant")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(instants) == 1 {
		result, err := checkInstant(ctx, sc, instants[0])
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}

	results := batch.ProcessBatch(ctx, instants, func(ctx context.Context, raw string) (string, error) {
		return checkInstant(ctx, sc, raw)
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

// checkInstant checks one instant and, when it is not bookable, suggests the
// next free slot.
func checkInstant(ctx context.Context, sc *server.ServerContext, raw string) (string, error) {
	scheduler := sc.Scheduler()
	loc := scheduler.Policy().Location

	instant, err := common.InstantArg(map[string]interface{}{"instant": raw}, "instant", loc)
	if err != nil {
		return "", err
	}

	verdict, err := scheduler.Check(ctx, instant)
	if err != nil {
		return "", fmt.Errorf("failed to check availability: %w", err)
	}

	slot := availability.SlotAt(instant, scheduler.Policy())
	if verdict == availability.VerdictOK {
		return fmt.Sprintf("Available: %s", formatSlot(slot)), nil
	}

	result := fmt.Sprintf("Not available (%s): %s\n", verdict, formatSlot(slot))
	next, err := scheduler.NextAvailable(ctx, instant)
	switch {
	case err != nil:
		result += fmt.Sprintf("Could not search for an alternative: %v\n", err)
	case next == nil:
		result += "No free slot within the booking horizon.\n"
	default:
		result += fmt.Sprintf("Next available: %s\n", formatSlot(*next))
	}
	return result, nil
}

func handleNextSlot(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	scheduler := sc.Scheduler()

	after, err := common.OptionalInstantArg(request.GetArguments(), "after", scheduler.Policy().Location, scheduler.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	next, err := scheduler.NextAvailable(ctx, after)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to find the next slot: %v", err)), nil
	}
	if next == nil {
		return mcp.NewToolResultText("No free slot within the booking horizon"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Next available: %s", formatSlot(*next))), nil
}

func handleListSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	scheduler := sc.Scheduler()
	loc := scheduler.Policy().Location
	args := request.GetArguments()

	start, err := common.OptionalInstantArg(args, "start", loc, scheduler.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := common.InstantArg(args, "end", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !end.After(start) {
		return mcp.NewToolResultError("end must be after start"), nil
	}
	maxResults := common.IntArg(args, "maxResults", defaultMaxSlots)

	listed, err := scheduler.ListSlots(ctx, start, end)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list slots: %v", err)), nil
	}
	slots := withinRange(listed, start, end)
	if len(slots) == 0 {
		return mcp.NewToolResultText("No available slots in the requested range"), nil
	}

	total := len(slots)
	if total > maxResults {
		slots = slots[:maxResults]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d available slot(s)", total)
	if total > len(slots) {
		fmt.Fprintf(&sb, ", showing the first %d", len(slots))
	}
	sb.WriteString(":\n\n")
	for i, slot := range slots {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, formatSlot(slot))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// withinRange keeps the slots lying entirely inside [start, end]. The engine
// lists whole days.
func withinRange(slots []availability.Slot, start, end time.Time) []availability.Slot {
	out := make([]availability.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.Start.Before(start) || slot.End.After(end) {
			continue
		}
		out = append(out, slot)
	}
	return out
}
