package signal_tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbot/internal/availability"
	"github.com/teemow/slotbot/internal/booking"
	"github.com/teemow/slotbot/internal/calendar"
	"github.com/teemow/slotbot/internal/server"
)

type nopCalendar struct{}

func (nopCalendar) CalendarID() string { return "primary" }

func (nopCalendar) BusyIntervals(context.Context, time.Time, time.Time) ([]availability.BusyInterval, error) {
	return nil, nil
}

func (nopCalendar) CreateEvent(context.Context, calendar.EventInput) (*calendar.EventHandle, error) {
	return &calendar.EventHandle{ID: "evt"}, nil
}

type sentMessage struct {
	recipient string
	message   string
}

type fakeMessenger struct {
	sent []sentMessage
	err  error
}

func (f *fakeMessenger) SendMessage(_ context.Context, recipient, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{recipient: recipient, message: message})
	return nil
}

func newServerContext(t *testing.T, opts ...server.Option) *server.ServerContext {
	t.Helper()
	svc, err := booking.NewService(nopCalendar{}, availability.DefaultPolicy())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	sc, err := server.NewServerContext(context.Background(), svc, opts...)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	tool, ok := s.ListTools()[name]
	if !ok {
		t.Fatalf("tool %s is not registered", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("%s returned error: %v", name, err)
	}
	return result
}

func resultText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

// TestRegisterSignalTools tests the registration of Signal tools
func TestRegisterSignalTools(t *testing.T) {
	t.Run("no messenger", func(t *testing.T) {
		s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))
		if err := RegisterSignalTools(s, newServerContext(t)); err != nil {
			t.Fatalf("RegisterSignalTools() error = %v", err)
		}
		if len(s.ListTools()) != 0 {
			t.Errorf("expected no tools without a messenger, got %d", len(s.ListTools()))
		}
	})

	t.Run("read only refuses to send", func(t *testing.T) {
		messenger := &fakeMessenger{}
		s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))
		if err := RegisterSignalTools(s, newServerContext(t, server.WithMessenger(messenger))); err != nil {
			t.Fatalf("RegisterSignalTools() error = %v", err)
		}

		result := callTool(t, s, "signal_send_message", map[string]interface{}{
			"recipient": "+5215512345678",
			"message":   "hola",
		})
		if !result.IsError {
			t.Error("expected an error result in read-only mode")
		}
		if len(messenger.sent) != 0 {
			t.Errorf("expected nothing sent, got %v", messenger.sent)
		}
	})
}

func TestSendMessage(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]interface{}
		sendErr   error
		wantError bool
		wantSent  int
	}{
		{
			name:     "sends",
			args:     map[string]interface{}{"recipient": "+5215512345678", "message": "Su cita es mañana"},
			wantSent: 1,
		},
		{
			name:      "missing recipient",
			args:      map[string]interface{}{"message": "hola"},
			wantError: true,
		},
		{
			name:      "missing message",
			args:      map[string]interface{}{"recipient": "+5215512345678"},
			wantError: true,
		},
		{
			name:      "delivery failure",
			args:      map[string]interface{}{"recipient": "+5215512345678", "message": "hola"},
			sendErr:   errors.New("Unregistered user"),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messenger := &fakeMessenger{err: tt.sendErr}
			s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))
			sc := newServerContext(t, server.WithMessenger(messenger), server.WithBookingEnabled(true))
			if err := RegisterSignalTools(s, sc); err != nil {
				t.Fatalf("RegisterSignalTools() error = %v", err)
			}

			result := callTool(t, s, "signal_send_message", tt.args)
			if result.IsError != tt.wantError {
				t.Errorf("IsError = %v, want %v (%s)", result.IsError, tt.wantError, resultText(result))
			}
			if len(messenger.sent) != tt.wantSent {
				t.Errorf("sent %d messages, want %d", len(messenger.sent), tt.wantSent)
			}
		})
	}
}
