package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"

	"github.com/AstroAssist-core/server/internal/console"
	"github.com/AstroAssist-core/server/internal/mission/dashboard"
	"github.com/AstroAssist-core/server/internal/mission/feed"
	"github.com/AstroAssist-core/server/internal/mission/history"
	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	var cfg AppConfig

	serveCmd := newServeCommand(&cfg)
	root := &cobra.Command{
		Use:   "astroassist",
		Short: "AstroAssist mission control server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return fmt.Errorf("process environment config: %w", err)
			}
			cfg = loaded
			opts := logx.LoggerOpts{Environment: cfg.Environment}
			if cmd.Name() == "console" {
				opts.Output = io.Discard
			}
			logx.Init(opts)
			return nil
		},
		RunE:          serveCmd.RunE,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd,
		newClassifyCommand(&cfg),
		newConsoleCommand(&cfg),
		newHistoryCommand(&cfg),
		newFeedCommand(),
	)
	return root
}

func newServeCommand(cfg *AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := buildApp(ctx, *cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Start(ctx)
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           app.API.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return serveUntilDone(ctx, srv)
		},
	}
}

func newClassifyCommand(cfg *AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify one command and print the intent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return nil
			}
			ctx := cmd.Context()
			c, err := buildClassifier(ctx, *cfg, history.NewLog())
			if err != nil {
				return err
			}
			res, err := c.Classify(ctx, text)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

func newConsoleCommand(cfg *AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Run the station with a terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := buildApp(ctx, *cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Start(ctx)
			return console.Run(ctx, app.Station, time.Local)
		},
	}
}

func newHistoryCommand(cfg *AppConfig) *cobra.Command {
	var (
		limit int
		purge bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the history mirrored to Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rdb, err := cfg.Redis.New()
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer rdb.Close()
			repo := history.NewRedisRepository(rdb, cfg.History.RedisKey, cfg.History.TTL)

			if purge {
				return repo.Clear(ctx)
			}
			entries, err := repo.Load(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history recorded yet.")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Max entries to show (0 for all)")
	cmd.Flags().BoolVar(&purge, "clear", false, "Delete the mirrored history")
	return cmd
}

func printHistory(w io.Writer, entries []model.HistoryEntry) {
	for _, e := range entries {
		command := e.Command
		if e.Auto {
			command = history.AutoSensorCommand
		}
		line := fmt.Sprintf("%s  %-32s %s", e.Timestamp.Local().Format(time.DateTime), command, dashboard.IntentText(e.Intent))
		if e.Reason != "" {
			line += "  ⚠ " + e.Reason
		}
		fmt.Fprintln(w, line)
	}
}

func newFeedCommand() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Serve a simulated sensor feed on /ws/sensors",
		RunE: func(cmd *cobra.Command, args []string) error {
			mux := http.NewServeMux()
			mux.Handle("/ws/sensors", feed.Handler(feed.NewSimulator(nil), interval))
			srv := &http.Server{
				Addr:              addr,
				Handler:           handlers.LoggingHandler(logx.Writer(), mux),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return serveUntilDone(cmd.Context(), srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8001", "Listen address")
	cmd.Flags().DurationVar(&interval, "interval", feed.DefaultInterval, "Push interval")
	return cmd
}

func serveUntilDone(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logx.Info().Msg("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
