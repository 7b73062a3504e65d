// Command yt-chat-viewer serves the chat replay API and ships a small
// offline inspector.
//
// serve:
//   - Loads configuration and initializes structured logging.
//   - Exposes the session HTTP API plus /healthz, /status, and /metrics.
//   - Shuts down gracefully on SIGINT/SIGTERM.
//
// inspect:
//   - Reads a chat replay dump from a file (or stdin) and prints the
//     aggregate statistics report as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/absolute-link/yt-chat-viewer/chat"
	"github.com/absolute-link/yt-chat-viewer/config"
	"github.com/absolute-link/yt-chat-viewer/currency"
	"github.com/absolute-link/yt-chat-viewer/server"
	"github.com/absolute-link/yt-chat-viewer/stats"
	"github.com/absolute-link/yt-chat-viewer/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "yt-chat-viewer",
	Short: "Chat replay reconstruction service",
	Long: `yt-chat-viewer rebuilds a readable chat timeline from an archived
live-stream chat replay dump and serves it over HTTP, with filtering,
aggregate statistics, and currency enrichment.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Summarize a replay dump offline",
	Long: `inspect reads a chat replay dump from the given file (or stdin when
no file is given) and prints the aggregate statistics report as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

var inspectCurrency bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectCurrency, "currency", false,
		"Fetch exchange rates and price purchase totals in USD")
	rootCmd.AddCommand(serveCmd, inspectCmd)
}

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	initLogging()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogging configures the default slog logger from LOG_LEVEL and
// LOG_FORMAT. Defaults: level=info, format=text.
func initLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	telemetry.Init()

	// OpenTelemetry tracing is optional; it activates only when
	// OTEL_EXPORTER_OTLP_ENDPOINT is set.
	shutdown, err := telemetry.InitTracing("yt-chat-viewer", "1.0.0")
	if err != nil {
		return fmt.Errorf("tracing initialization failed: %w", err)
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	if err := server.Start(ctx, cfg, cfg.HTTPAddr); err != nil {
		return err
	}
	slog.Info("shutting down")
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open replay dump: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				slog.Warn("failed to close replay dump", slog.Any("err", err))
			}
		}()
		in = f
	}

	session := chat.NewSession()
	counts, err := session.FeedReader(in)
	if err != nil {
		return fmt.Errorf("read replay dump: %w", err)
	}

	report := stats.Calculate(session.Timeline())

	out := map[string]any{
		"ingest": counts,
		"report": report,
	}

	if inspectCurrency {
		client := currency.NewClient(cfg.CurrencyAPIURL, cfg.CurrencyTimeout)
		table, err := client.LoadUSDRates(cmd.Context())
		if err != nil {
			return err
		}
		priced, totalUSD, unpriced := table.ConvertTotals(report.Totals.CurrencyTotals)
		out["currency"] = map[string]any{
			"totalUsd": totalUSD,
			"priced":   priced,
			"unpriced": unpriced,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
