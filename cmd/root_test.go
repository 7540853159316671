package cmd

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/slotbot/internal/logging"
)

func TestVersionSkipsSetup(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "slotbot version "+version+"\n", out.String())
}

func TestPreRunAppliesRootFlags(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	prevLogger, prevCfg := slog.Default(), cfg
	t.Cleanup(func() {
		slog.SetDefault(prevLogger)
		cfg = prevCfg
	})

	root := &cobra.Command{Use: "slotbot"}
	root.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "")
	child := &cobra.Command{Use: "slots"}
	root.AddCommand(child)
	require.NoError(t, root.PersistentFlags().Set("log-format", logging.FormatJSON))

	require.NoError(t, preRun(child, nil))
	assert.Equal(t, logging.FormatJSON, cfg.Log.Format)
}
