package signal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/teemow/slotbot/internal/logging"
)

// fakeRunner records invocations and replays canned results.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	results []fakeResult
}

type fakeResult struct {
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string{name}, args...))
	if len(f.results) == 0 {
		return "", "", nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.stdout, r.stderr, r.err
}

func newFakeClient(t *testing.T, f *fakeRunner) *Client {
	t.Helper()
	client, err := NewClient("+15551234567", WithRunner(f.run), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("NewClient() unexpected error = %v", err)
	}
	return client
}

// TestNewClient tests the creation of a new Signal client
func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		wantErr   bool
		errString string
	}{
		{
			name:   "valid phone number",
			userID: "+15551234567",
		},
		{
			name:      "empty user ID",
			userID:    "",
			wantErr:   true,
			errString: "userID cannot be empty",
		},
		{
			name:      "missing plus sign",
			userID:    "15551234567",
			wantErr:   true,
			errString: "must be a phone number starting with +",
		},
		{
			name:      "letters",
			userID:    "+1555CALLME",
			wantErr:   true,
			errString: "only digits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.userID, WithRunner((&fakeRunner{}).run))

			if tt.wantErr {
				if err == nil {
					t.Errorf("NewClient() expected error containing %q, got nil", tt.errString)
				} else if !strings.Contains(err.Error(), tt.errString) {
					t.Errorf("NewClient() error = %v, want error containing %q", err, tt.errString)
				}
				return
			}

			if err != nil {
				t.Fatalf("NewClient() unexpected error = %v", err)
			}
			if client.UserID() != tt.userID {
				t.Errorf("NewClient() userID = %v, want %v", client.UserID(), tt.userID)
			}
		})
	}
}

func TestNewClient_MissingBinary(t *testing.T) {
	_, err := NewClient("+15551234567", WithBinary("signal-cli-does-not-exist"))

	var sigErr *SignalError
	if !errors.As(err, &sigErr) {
		t.Fatalf("NewClient() error = %v, want *SignalError", err)
	}
	if sigErr.Op != "initialize" {
		t.Errorf("Op = %q, want initialize", sigErr.Op)
	}
}

// TestSendMessage tests sending direct messages
func TestSendMessage(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		message   string
		result    fakeResult
		wantArgs  []string
		errString string
	}{
		{
			name:      "sends",
			recipient: "+15559876543",
			message:   "Your appointment is booked",
			wantArgs:  []string{"signal-cli", "-u", "+15551234567", "send", "+15559876543", "-m", "Your appointment is booked"},
		},
		{
			name:      "empty recipient",
			message:   "hi",
			errString: "recipient cannot be empty",
		},
		{
			name:      "invalid recipient",
			recipient: "15559876543",
			message:   "hi",
			errString: "starting with +",
		},
		{
			name:      "empty message",
			recipient: "+15559876543",
			message:   "   ",
			errString: "message cannot be empty",
		},
		{
			name:      "signal-cli failure",
			recipient: "+15559876543",
			message:   "hi",
			result:    fakeResult{stderr: "Unregistered user", err: errors.New("exit status 1")},
			errString: "Unregistered user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{results: []fakeResult{tt.result}}
			client := newFakeClient(t, runner)

			err := client.SendMessage(context.Background(), tt.recipient, tt.message)
			if tt.errString != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errString) {
					t.Errorf("SendMessage() error = %v, want error containing %q", err, tt.errString)
				}
				var sigErr *SignalError
				if !errors.As(err, &sigErr) || sigErr.Op != "send" {
					t.Errorf("SendMessage() error should be a send SignalError, got %T", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("SendMessage() unexpected error = %v", err)
			}
			if len(runner.calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(runner.calls))
			}
			if got := strings.Join(runner.calls[0], " "); got != strings.Join(tt.wantArgs, " ") {
				t.Errorf("command = %q, want %q", got, strings.Join(tt.wantArgs, " "))
			}
		})
	}
}

// TestReceive tests a single receive call
func TestReceive(t *testing.T) {
	t.Run("invalid timeout", func(t *testing.T) {
		client := newFakeClient(t, &fakeRunner{})
		if _, err := client.Receive(context.Background(), 100*time.Millisecond); err == nil {
			t.Error("Receive() expected error for sub-second timeout")
		}
	})

	t.Run("timeout is not an error", func(t *testing.T) {
		runner := &fakeRunner{results: []fakeResult{{stderr: "Timeout while waiting", err: errors.New("exit status 1")}}}
		client := newFakeClient(t, runner)

		msgs, err := client.Receive(context.Background(), 5*time.Second)
		if err != nil {
			t.Fatalf("Receive() unexpected error = %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("Receive() = %v, want no messages", msgs)
		}
		if got := strings.Join(runner.calls[0], " "); got != "signal-cli -u +15551234567 receive --timeout 5" {
			t.Errorf("command = %q", got)
		}
	})

	t.Run("failure", func(t *testing.T) {
		runner := &fakeRunner{results: []fakeResult{{stderr: "config locked", err: errors.New("exit status 2")}}}
		client := newFakeClient(t, runner)

		_, err := client.Receive(context.Background(), 5*time.Second)
		var sigErr *SignalError
		if !errors.As(err, &sigErr) || sigErr.Op != "receive" {
			t.Errorf("Receive() error = %v, want receive SignalError", err)
		}
	})
}

func TestParseReceiveOutput(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []Message
	}{
		{
			name: "simple direct message",
			output: `Envelope from: "Alice" +11234567890 (device: 1) to +15551234567
Timestamp: 1716998400000 (2024-05-29T16:00:00.000Z)
Body: Hello, world!`,
			want: []Message{{SenderID: "+11234567890", Body: "Hello, world!", Timestamp: time.UnixMilli(1716998400000)}},
		},
		{
			name: "group message",
			output: `Envelope from: "Bob" +19876543210 (device: 1) to +15551234567
Group info:
  Name: Test Group
  Id: groupIdHere
Body: Group message here`,
			want: []Message{{SenderID: "+19876543210", Body: "Group message here", GroupName: "Test Group"}},
		},
		{
			name: "several envelopes with a receipt in between",
			output: `Envelope from: "Alice" +11234567890 (device: 1) to +15551234567
Body: agendar

Envelope from: "Carol" +15559999999 (device: 1) to +15551234567
Received a receipt message

Envelope from: "Alice" +11234567890 (device: 1) to +15551234567
Body: 30 de mayo a las 10`,
			want: []Message{
				{SenderID: "+11234567890", Body: "agendar"},
				{SenderID: "+11234567890", Body: "30 de mayo a las 10"},
			},
		},
		{
			name:   "no message body",
			output: `Envelope from: "Carol" +15559999999 (device: 1) to +15551234567`,
		},
		{
			name:   "empty output",
			output: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseReceiveOutput(tt.output)
			if len(got) != len(tt.want) {
				t.Fatalf("parseReceiveOutput() returned %d messages, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].SenderID != tt.want[i].SenderID || got[i].Body != tt.want[i].Body || got[i].GroupName != tt.want[i].GroupName {
					t.Errorf("message %d = %+v, want %+v", i, got[i], tt.want[i])
				}
				if !got[i].Timestamp.Equal(tt.want[i].Timestamp) {
					t.Errorf("message %d timestamp = %v, want %v", i, got[i].Timestamp, tt.want[i].Timestamp)
				}
			}
		})
	}
}

func TestListen(t *testing.T) {
	runner := &fakeRunner{results: []fakeResult{
		{err: errors.New("exit status 2"), stderr: "temporary failure"},
		{stdout: `Envelope from: "Alice" +11234567890 (device: 1) to +15551234567
Body: hola
Envelope from: "Bob" +19876543210 (device: 1) to +15551234567
Group info:
  Name: Family
Body: in a group
Envelope from: "Carol" +15559999999 (device: 1) to +15551234567
Body: cita`},
	}}
	client := newFakeClient(t, runner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received []string
	err := client.Listen(ctx, func(_ context.Context, msg Message) error {
		received = append(received, msg.SenderID+":"+msg.Body)
		if len(received) == 2 {
			cancel()
		}
		return errors.New("handler errors are logged, not fatal")
	}, time.Second)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Listen() error = %v, want context.Canceled", err)
	}
	want := []string{"+11234567890:hola", "+15559999999:cita"}
	if strings.Join(received, ",") != strings.Join(want, ",") {
		t.Errorf("received = %v, want %v", received, want)
	}
}

// TestSignalError tests the SignalError type
func TestSignalError(t *testing.T) {
	base := errors.New("boom")

	withUser := &SignalError{Op: "send", UserID: "+15551234567", Err: base}
	if got := withUser.Error(); got != "signal send (user: +15551234567): boom" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(withUser, base) {
		t.Error("SignalError should unwrap to the underlying error")
	}

	noUser := &SignalError{Op: "receive", Err: base}
	if got := noUser.Error(); got != "signal receive: boom" {
		t.Errorf("Error() = %q", got)
	}
}
