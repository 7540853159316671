package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teemow/slotbot/internal/availability"
)

// EnvPrefix prefixes every environment key.
const EnvPrefix = "SLOTBOT"

// LoadOptions points Load at explicit files.
type LoadOptions struct {
	// ConfigFile is a YAML file. When set it must exist.
	ConfigFile string

	// EnvFile is a dotenv file, ".env" by default. A missing file is ignored.
	EnvFile string
}

// aliases maps config keys to the unprefixed environment variables the
// deployment conventions already use.
var aliases = map[string]string{
	"calendar.id":               "CALENDAR_ID",
	"calendar.credentials_file": "GOOGLE_APPLICATION_CREDENTIALS",
	"assistant.api_key":         "GEMINI_API_KEY",
	"signal.account":            "SIGNAL_ACCOUNT",
}

// Load reads the configuration and validates it.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range aliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("slotbot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/slotbot")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("calendar.id", "")
	v.SetDefault("calendar.credentials_file", "")
	v.SetDefault("calendar.busy_source", "events")
	v.SetDefault("calendar.color_id", "2")
	v.SetDefault("calendar.timeout", 15*time.Second)

	v.SetDefault("policy.weekdays", []string{"mon", "tue", "wed", "thu", "fri"})
	v.SetDefault("policy.start_hour", availability.DefaultStartHour)
	v.SetDefault("policy.end_hour", availability.DefaultEndHour)
	v.SetDefault("policy.duration", availability.DefaultDuration)
	v.SetDefault("policy.horizon_days", availability.DefaultHorizonDays)
	v.SetDefault("policy.time_zone", availability.DefaultTimeZone)

	v.SetDefault("signal.account", "")
	v.SetDefault("signal.binary", "signal-cli")
	v.SetDefault("signal.poll_interval", 5*time.Second)

	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.model", "gemini-1.5-flash")

	v.SetDefault("state.backend", BackendMemory)
	v.SetDefault("state.redis_url", "")
	v.SetDefault("state.ttl", 24*time.Hour)

	v.SetDefault("conversation.greeting_keywords", []string{"hola", "ola", "buenas", "hello", "hi", "hey"})
	v.SetDefault("conversation.booking_keywords", []string{"agendar", "cita", "reservar", "turno", "book", "appointment", "schedule"})
	v.SetDefault("conversation.max_greeting_length", 8)
	v.SetDefault("conversation.rate_limit", 1.0)
	v.SetDefault("conversation.burst", 5)

	v.SetDefault("server.metrics_addr", ":9090")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
