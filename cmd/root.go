// Package cmd is the flowedit command line.
package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"flowedit/config"
)

var version = "0.3.0"

var (
	cfg *config.Config

	configPath string
	logLevel   string
	logFormat  string
	noJournal  bool
)

var rootCmd = &cobra.Command{
	Use:   "flowedit",
	Short: "flowedit - structural editor for dataflow models",
	Long: Brand.Sprint("flowedit") + " - edit hierarchical dataflow models from the command line\n" +
		Subtle.Sprint("Every edit is an undoable change script; history persists between runs"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		if logFormat != "" {
			c.Log.Format = logFormat
		}
		if noJournal {
			c.Journal.Enabled = false
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c
		logger, err := newLogger(os.Stderr, c.Log)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate("flowedit {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "Config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&noJournal, "no-journal", false, "Do not read or write the history journal")

	rootCmd.AddCommand(
		showCmd(),
		checkCmd(),
		deleteCmd(),
		extractCmd(),
		copyCmd(),
		pasteCmd(),
		moveCmd(),
		undoCmd(),
		redoCmd(),
		historyCmd(),
		viewCmd(),
	)
}

// newLogger builds the slog handler named by the log config.
func newLogger(w io.Writer, c config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		Bad.Fprintf(os.Stderr, "flowedit: %v\n", err)
	}
	return err
}
