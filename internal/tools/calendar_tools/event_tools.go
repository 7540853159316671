package calendar_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbot/internal/availability"
	"github.com/teemow/slotbot/internal/booking"
	"github.com/teemow/slotbot/internal/server"
	"github.com/teemow/slotbot/internal/tools/common"
)

// RegisterEventTools registers tools that write to the calendar
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	bookTool := mcp.NewTool("calendar_book_appointment",
		mcp.WithDescription("Book an appointment at the given start instant. The slot is re-checked against the policy and the calendar before the event is created."),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start of the appointment (RFC3339, or 'YYYY-MM-DDTHH:MM' in the policy time zone)"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the person the appointment is for; used as the event summary"),
		),
		mcp.WithString("reason",
			mcp.Description("Reason for the appointment; used as the event description"),
		),
		mcp.WithString("requester",
			mcp.Description("Phone number of the requester, recorded (hashed) in the audit log"),
		),
	)

	s.AddTool(bookTool, common.InstrumentedToolHandler("calendar_book_appointment", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBookAppointment(ctx, request, sc)
		}))

	return nil
}

func handleBookAppointment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	scheduler := sc.Scheduler()
	args := request.GetArguments()

	start, err := common.InstantArg(args, "start", scheduler.Policy().Location)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, ok := common.StringArg(args, "name")
	if !ok {
		return mcp.NewToolResultError("name is required"), nil
	}
	reason, _ := common.StringArg(args, "reason")
	if requester, ok := common.StringArg(args, "requester"); ok {
		ctx = booking.WithSession(ctx, requester)
	}

	handle, err := scheduler.Book(ctx, name, reason, start)

	var notBookable *booking.NotBookableError
	switch {
	case errors.Is(err, booking.ErrSlotTaken):
		return mcp.NewToolResultError(fmt.Sprintf("The slot %s was taken in the meantime", formatSlot(availability.SlotAt(start, scheduler.Policy())))), nil
	case errors.As(err, &notBookable):
		return mcp.NewToolResultError(fmt.Sprintf("The slot cannot be booked: %s", notBookable.Verdict)), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to book appointment: %v", err)), nil
	}

	result := fmt.Sprintf("Appointment booked: %s\nEvent ID: %s\n", formatSlot(availability.SlotAt(start, scheduler.Policy())), handle.ID)
	if handle.HTMLLink != "" {
		result += fmt.Sprintf("Link: %s\n", handle.HTMLLink)
	}
	return mcp.NewToolResultText(result), nil
}
