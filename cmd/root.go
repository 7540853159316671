package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/slotbot/internal/config"
	"github.com/teemow/slotbot/internal/logging"
)

// rootCmd represents the base command for the slotbot application
var rootCmd = &cobra.Command{
	Use:   "slotbot",
	Short: "Books appointments into a Google Calendar through a chat",
	Long: `slotbot answers appointment requests sent over Signal. It understands
dates written in plain Spanish, checks them against a weekly availability
policy and the calendar, proposes the requested or the next free slot and
books the appointment once the requester confirms.

It can run as:
  - A Signal bot (run)
  - A terminal chat for trying the dialogue (chat)
  - An MCP (Model Context Protocol) server for AI assistants (serve)`,
	SilenceUsage: true,
}

var (
	// version will be set by main
	version = "dev"

	configFile string
	envFile    string
	debug      bool
	logFormat  string

	// cfg is loaded before any subcommand other than version runs.
	cfg *config.Config
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "slotbot version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// preRun loads the configuration for every command except version.
func preRun(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	return setup(cmd)
}

// setup loads the configuration and installs the default logger.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(config.LoadOptions{ConfigFile: configFile, EnvFile: envFile})
	if err != nil {
		return err
	}
	cfg = loaded

	if cmd.Root().PersistentFlags().Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	handler, err := logging.NewHandler(os.Stderr, cfg.Log.Format, level)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func init() {
	rootCmd.PersistentPreRunE = preRun

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./slotbot.yaml or ~/.config/slotbot/slotbot.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSlotsCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
