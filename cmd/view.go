package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"flowedit/graphmodel"
	"flowedit/terminal"
)

func viewCmd() *cobra.Command {
	var (
		metricsAddr string
		logFile     string
	)
	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Edit a model interactively in the terminal",
		Long: "Edit a model interactively. Keys: arrows/hjkl move the cursor, space selects,\n" +
			"m starts and ends a move, d deletes, x extracts, c/p copy and paste,\n" +
			"u/r undo and redo, f fits the view, q quits. The model is saved on exit.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// The screen owns the terminal; logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				logOut = f
			}
			logger, err := newLogger(logOut, cfg.Log)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			if err := screen.Init(); err != nil {
				return err
			}

			s, err := openSession(ctx, cmd.ErrOrStderr(), args[0], withAdapterOptions(
				graphmodel.WithDispatcher(terminal.NewDispatcher(screen)),
			))
			if err != nil {
				screen.Fini()
				return err
			}
			defer s.close()

			if metricsAddr != "" {
				srv := serveMetrics(metricsAddr, logger)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			app := terminal.NewApp(screen, s.editor, s.scene, logger)
			runErr := app.Run(ctx)
			screen.Fini()
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			return s.save(ctx)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file")
	return cmd
}

func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	return srv
}
