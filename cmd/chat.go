package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/slotbot/internal/state"
)

// consoleSender prints replies instead of sending them over Signal.
type consoleSender struct {
	out io.Writer
}

func (c consoleSender) SendMessage(_ context.Context, _, message string) error {
	_, err := fmt.Fprintf(c.out, "bot> %s\n", message)
	return err
}

func newChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the booking dialogue from the terminal",
		Long: `Run the booking dialogue against the configured calendar with the terminal
as the chat. Every line you type is handled as a message from --as.

Confirmed appointments are written to the calendar, so point calendar.id at
a test calendar when experimenting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.InOrStdin(), cmd.OutOrStdout(), sessionID)
		},
	}

	cmd.Flags().StringVar(&sessionID, "as", "+10000000000", "Phone number the messages appear to come from")

	return cmd
}

func runChat(in io.Reader, out io.Writer, sessionID string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// A terminal session never needs to outlive the process.
	store := state.NewMemoryStore(cfg.State.TTL)
	defer func() { _ = store.Close() }()

	orchestrator, err := a.newOrchestrator(ctx, store, consoleSender{out: out})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Chatting as %s with calendar %s. Ctrl-D to quit.\n", sessionID, a.scheduler.CalendarID())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := orchestrator.Handle(ctx, sessionID, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}
