package signal

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/slotbot/internal/logging"
)

const (
	defaultBinary       = "signal-cli"
	defaultPollInterval = 5 * time.Second
	maxErrorBackoff     = time.Minute
)

// Runner executes a command and returns its stdout and stderr.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

// execRunner runs commands with os/exec.
func execRunner(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Client provides access to Signal messaging operations via signal-cli
type Client struct {
	userID string // The phone number registered with signal-cli (e.g., "+15551234567")
	binary string
	run    Runner
	logger logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBinary sets the signal-cli executable.
func WithBinary(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.binary = path
		}
	}
}

// WithRunner replaces os/exec. The binary is not looked up in PATH when a
// runner is given.
func WithRunner(r Runner) Option {
	return func(c *Client) {
		if r != nil {
			c.run = r
		}
	}
}

// WithLogger sets the logger used by Listen.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new Signal client for the specified phone number
// The phone number must be already registered with signal-cli
func NewClient(userID string, opts ...Option) (*Client, error) {
	if err := validatePhone(userID); err != nil {
		return nil, fmt.Errorf("userID %w", err)
	}

	c := &Client{
		userID: userID,
		binary: defaultBinary,
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.run == nil {
		if _, err := exec.LookPath(c.binary); err != nil {
			return nil, &SignalError{
				Op:     "initialize",
				UserID: userID,
				Err:    fmt.Errorf("%s not found in PATH. Please install signal-cli: https://github.com/AsamK/signal-cli", c.binary),
			}
		}
		c.run = execRunner
	}

	return c, nil
}

// UserID returns the phone number associated with this client
func (c *Client) UserID() string {
	return c.userID
}

func validatePhone(phone string) error {
	if phone == "" {
		return errors.New("cannot be empty")
	}
	if !strings.HasPrefix(phone, "+") || len(phone) < 4 {
		return errors.New("must be a phone number starting with + (e.g., +15551234567)")
	}
	for _, r := range phone[1:] {
		if r < '0' || r > '9' {
			return errors.New("must contain only digits after +")
		}
	}
	return nil
}

// SendMessage sends a text message to a Signal user
func (c *Client) SendMessage(ctx context.Context, recipient, message string) error {
	if err := validatePhone(recipient); err != nil {
		return &SignalError{Op: "send", UserID: c.userID, Err: fmt.Errorf("recipient %w", err)}
	}
	if strings.TrimSpace(message) == "" {
		return &SignalError{Op: "send", UserID: c.userID, Err: errors.New("message cannot be empty")}
	}

	// signal-cli -u USER_ID send RECIPIENT -m MESSAGE
	_, stderr, err := c.run(ctx, c.binary, "-u", c.userID, "send", recipient, "-m", message)
	if err != nil {
		return &SignalError{
			Op:     "send",
			UserID: c.userID,
			Err:    fmt.Errorf("failed to send message: %w (stderr: %s)", err, strings.TrimSpace(stderr)),
		}
	}
	return nil
}

// Receive runs one "signal-cli receive" and returns the text messages it
// printed. An empty slice means nothing arrived within timeout.
func (c *Client) Receive(ctx context.Context, timeout time.Duration) ([]Message, error) {
	seconds := int(timeout.Round(time.Second).Seconds())
	if seconds <= 0 {
		return nil, &SignalError{Op: "receive", UserID: c.userID, Err: errors.New("timeout must be at least one second")}
	}

	stdout, stderr, err := c.run(ctx, c.binary, "-u", c.userID, "receive", "--timeout", strconv.Itoa(seconds))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Timeout is not an error, just no messages
		if strings.Contains(strings.ToLower(stderr), "timeout") {
			return nil, nil
		}
		return nil, &SignalError{
			Op:     "receive",
			UserID: c.userID,
			Err:    fmt.Errorf("failed to receive messages: %w (stderr: %s)", err, strings.TrimSpace(stderr)),
		}
	}

	return parseReceiveOutput(stdout), nil
}

// parseReceiveOutput extracts the text messages from signal-cli receive
// output. Envelopes without a body (receipts, typing indicators) are dropped.
//
//	Envelope from: "Alice" +11234567890 (device: 1) to +15551234567
//	Timestamp: 1716998400000 (2024-05-29T16:00:00.000Z)
//	Body: Hello
func parseReceiveOutput(output string) []Message {
	var (
		messages []Message
		current  *Message
		inGroup  bool
	)
	flush := func() {
		if current != nil && current.SenderID != "" && current.Body != "" {
			messages = append(messages, *current)
		}
		current = nil
		inGroup = false
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "Envelope from:"):
			flush()
			current = &Message{SenderID: parseSender(line)}
		case current == nil:
			continue
		case strings.HasPrefix(line, "Timestamp:"):
			if current.Timestamp.IsZero() {
				current.Timestamp = parseTimestamp(strings.TrimPrefix(line, "Timestamp:"))
			}
		case strings.HasPrefix(line, "Body:"):
			current.Body = strings.TrimSpace(strings.TrimPrefix(line, "Body:"))
		case strings.HasPrefix(line, "Group info:"):
			inGroup = true
		case inGroup && strings.HasPrefix(line, "Name:"):
			current.GroupName = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		}
	}
	flush()

	return messages
}

func parseSender(line string) string {
	for _, field := range strings.Fields(strings.TrimPrefix(line, "Envelope from:")) {
		if strings.HasPrefix(field, "+") {
			return field
		}
	}
	return ""
}

func parseTimestamp(s string) time.Time {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Handler processes one incoming message.
type Handler func(ctx context.Context, msg Message) error

// Listen receives messages until ctx is cancelled and calls handler for each
// direct message, in arrival order. Receive failures are logged and retried
// with exponential backoff; handler errors are logged and do not stop the
// loop. It returns ctx.Err().
func (c *Client) Listen(ctx context.Context, handler Handler, pollInterval time.Duration) error {
	if pollInterval < time.Second {
		pollInterval = defaultPollInterval
	}

	backoff := pollInterval
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		messages, err := c.Receive(ctx, pollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("signal receive failed", logging.Err(err), "retry_in", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxErrorBackoff)
			continue
		}
		backoff = pollInterval

		for _, msg := range messages {
			if msg.GroupName != "" {
				c.logger.Debug("skipping group message", logging.Session(msg.SenderID))
				continue
			}
			if err := handler(ctx, msg); err != nil {
				c.logger.Error("message handler failed", logging.Session(msg.SenderID), logging.Err(err))
			}
		}
	}
}
