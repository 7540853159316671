package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/slotbot/internal/availability"
	"github.com/teemow/slotbot/internal/booking"
)

const slotLayout = "Mon 2006-01-02 15:04"

func newSlotsCmd() *cobra.Command {
	var weekdays string

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Query the availability of the configured calendar",
		Long: `Answer availability questions from the command line using the same rules
as the bot. Instants are ISO-8601 date-times; values without an offset are
read in the policy time zone.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := preRun(cmd, args); err != nil {
				return err
			}
			if days := parseCommaSeparatedList(weekdays); days != nil {
				cfg.Policy.Weekdays = days
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&weekdays, "weekdays", "", "Comma-separated working days overriding policy.weekdays (e.g. mon,wed,fri)")

	cmd.AddCommand(newSlotsListCmd())
	cmd.AddCommand(newSlotsCheckCmd())
	cmd.AddCommand(newSlotsNextCmd())

	return cmd
}

func newSlotsListCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List free slots in a range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withScheduler(cmd.Context(), func(ctx context.Context, s *booking.Service) error {
				loc := s.Policy().Location

				start := s.Now()
				if from != "" {
					t, err := parseDateOrInstant(from, loc)
					if err != nil {
						return err
					}
					start = t
				}
				end := s.Policy().HorizonEnd(start)
				if to != "" {
					t, err := parseDateOrInstant(to, loc)
					if err != nil {
						return err
					}
					end = t
				}

				slots, err := s.ListSlots(ctx, start, end)
				if err != nil {
					return err
				}
				return printSlots(cmd.OutOrStdout(), slots, start, end)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Range start (default: now)")
	cmd.Flags().StringVar(&to, "to", "", "Range end (default: end of the booking horizon)")

	return cmd
}

func newSlotsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <instant>",
		Short: "Check whether an appointment may start at an instant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(cmd.Context(), func(ctx context.Context, s *booking.Service) error {
				instant, err := availability.ParseInstant(args[0], s.Policy().Location)
				if err != nil {
					return err
				}
				verdict, err := s.Check(ctx, instant)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", instant.Format(slotLayout), verdict)
				return nil
			})
		},
	}
}

func newSlotsNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next [after]",
		Short: "Show the next free slot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(cmd.Context(), func(ctx context.Context, s *booking.Service) error {
				after := s.Now()
				if len(args) == 1 {
					t, err := availability.ParseInstant(args[0], s.Policy().Location)
					if err != nil {
						return err
					}
					after = t
				}
				slot, err := s.NextAvailable(ctx, after)
				if err != nil {
					return err
				}
				if slot == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No free slot within the booking horizon")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatSlotLine(*slot))
				return nil
			})
		},
	}
}

// withScheduler builds the booking service for the duration of fn.
func withScheduler(ctx context.Context, fn func(context.Context, *booking.Service) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(ctx, a.scheduler)
}

// parseDateOrInstant accepts a bare date as midnight in loc.
func parseDateOrInstant(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	return availability.ParseInstant(value, loc)
}

func printSlots(w io.Writer, slots []availability.Slot, start, end time.Time) error {
	n := 0
	for _, slot := range slots {
		if slot.Start.Before(start) || slot.End.After(end) {
			continue
		}
		if _, err := fmt.Fprintln(w, formatSlotLine(slot)); err != nil {
			return err
		}
		n++
	}
	if n == 0 {
		_, err := fmt.Fprintln(w, "No free slots in the requested range")
		return err
	}
	return nil
}

func formatSlotLine(slot availability.Slot) string {
	return fmt.Sprintf("%s - %s", slot.Start.Format(slotLayout), slot.End.Format("15:04 MST"))
}
