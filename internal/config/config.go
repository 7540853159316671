package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/teemow/slotbot/internal/availability"
)

// State backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the complete slotbot configuration.
type Config struct {
	Calendar     CalendarConfig     `mapstructure:"calendar"`
	Policy       PolicyConfig       `mapstructure:"policy"`
	Signal       SignalConfig       `mapstructure:"signal"`
	Assistant    AssistantConfig    `mapstructure:"assistant"`
	State        StateConfig        `mapstructure:"state"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
}

// CalendarConfig selects the calendar and how it is accessed.
type CalendarConfig struct {
	ID string `mapstructure:"id"`

	// CredentialsFile is a service account key or authorized user file.
	// Empty means Application Default Credentials.
	CredentialsFile string `mapstructure:"credentials_file"`

	// BusySource is "events" or "freebusy".
	BusySource string `mapstructure:"busy_source"`

	ColorID string        `mapstructure:"color_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PolicyConfig is the weekly availability window.
type PolicyConfig struct {
	Weekdays    []string      `mapstructure:"weekdays"`
	StartHour   int           `mapstructure:"start_hour"`
	EndHour     int           `mapstructure:"end_hour"`
	Duration    time.Duration `mapstructure:"duration"`
	HorizonDays int           `mapstructure:"horizon_days"`
	TimeZone    string        `mapstructure:"time_zone"`
}

// SignalConfig configures the signal-cli channel.
type SignalConfig struct {
	Account      string        `mapstructure:"account"`
	Binary       string        `mapstructure:"binary"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// AssistantConfig configures the Gemini assistant. Without an API key the
// rule based parser and template replies are used.
type AssistantConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// StateConfig selects the conversation state store.
type StateConfig struct {
	Backend  string        `mapstructure:"backend"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ConversationConfig tunes the dialogue.
type ConversationConfig struct {
	GreetingKeywords  []string `mapstructure:"greeting_keywords"`
	BookingKeywords   []string `mapstructure:"booking_keywords"`
	MaxGreetingLength int      `mapstructure:"max_greeting_length"`

	// RateLimit is the sustained number of messages per second per session.
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// ServerConfig configures the health and metrics listener.
type ServerConfig struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks values that do not depend on which command runs.
// Command specific requirements (a calendar ID, a Signal account) are checked
// by RequireCalendar and RequireSignal.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.AvailabilityPolicy(); err != nil {
		errs = append(errs, err)
	}

	switch c.Calendar.BusySource {
	case "events", "freebusy":
	default:
		errs = append(errs, fmt.Errorf("calendar.busy_source must be events or freebusy, got %q", c.Calendar.BusySource))
	}
	if c.Calendar.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("calendar.timeout must be positive"))
	}

	switch c.State.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.State.RedisURL == "" {
			errs = append(errs, fmt.Errorf("state.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("state.backend must be memory or redis, got %q", c.State.Backend))
	}
	if c.State.TTL <= 0 {
		errs = append(errs, fmt.Errorf("state.ttl must be positive"))
	}

	if c.Conversation.RateLimit <= 0 || c.Conversation.Burst <= 0 {
		errs = append(errs, fmt.Errorf("conversation.rate_limit and conversation.burst must be positive"))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// RequireCalendar checks that a calendar is configured.
func (c *Config) RequireCalendar() error {
	if c.Calendar.ID == "" {
		return fmt.Errorf("calendar ID is required (set CALENDAR_ID or calendar.id)")
	}
	return nil
}

// RequireSignal checks that a Signal account is configured.
func (c *Config) RequireSignal() error {
	if c.Signal.Account == "" {
		return fmt.Errorf("signal account is required (set SIGNAL_ACCOUNT or signal.account)")
	}
	return nil
}

// AvailabilityPolicy converts the policy section into an availability.Policy.
func (c *Config) AvailabilityPolicy() (availability.Policy, error) {
	loc, err := time.LoadLocation(c.Policy.TimeZone)
	if err != nil {
		return availability.Policy{}, fmt.Errorf("policy.time_zone: %w", err)
	}

	days := make([]time.Weekday, 0, len(c.Policy.Weekdays))
	for _, name := range c.Policy.Weekdays {
		d, err := availability.ParseWeekday(name)
		if err != nil {
			return availability.Policy{}, fmt.Errorf("policy.weekdays: %w", err)
		}
		days = append(days, d)
	}

	p := availability.Policy{
		Weekdays:    availability.Weekdays(days...),
		StartHour:   c.Policy.StartHour,
		EndHour:     c.Policy.EndHour,
		Duration:    c.Policy.Duration,
		HorizonDays: c.Policy.HorizonDays,
		Location:    loc,
	}
	if err := p.Validate(); err != nil {
		return availability.Policy{}, err
	}
	return p, nil
}
