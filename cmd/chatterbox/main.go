// Command chatterbox is the main entry point for the chatterbox text generator.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arvidsson/chatterbox/internal/brain"
	"github.com/arvidsson/chatterbox/internal/config"
	"github.com/arvidsson/chatterbox/internal/health"
	"github.com/arvidsson/chatterbox/internal/lexicon"
	"github.com/arvidsson/chatterbox/internal/observe"
	"github.com/arvidsson/chatterbox/internal/store"
	"github.com/arvidsson/chatterbox/internal/store/postgres"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	trainPath := flag.String("train", "", "bulk-load a training file via Learn and exit")
	healthAddr := flag.String("health-addr", ":8080", "listen address for the /healthz and /readyz endpoints")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "chatterbox: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "chatterbox: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("chatterbox starting",
		"config", *configPath,
		"order", cfg.Brain.Order,
		"log_level", cfg.Server.LogLevel,
	)

	lex, err := loadLexicon(cfg.Data)
	if err != nil {
		slog.Error("failed to load lexicon", "err", err)
		return 1
	}

	if *trainPath != "" {
		return runTrain(cfg, lex, *trainPath)
	}
	return runServe(cfg, lex, *configPath, *healthAddr)
}

// ── Training mode ─────────────────────────────────────────────────────────────

// runTrain bulk-loads a training corpus via [brain.Brain.Learn] and prints
// the (tokens_learned, lines_learned, lines_processed) triple per the
// specification's -train flag.
func runTrain(cfg *config.Config, lex *lexicon.Lexicon, path string) int {
	ctx := context.Background()

	f, err := os.Open(path)
	if err != nil {
		slog.Error("failed to open training file", "path", path, "err", err)
		return 1
	}
	defer f.Close()

	b, closeStore, err := newBrain(ctx, cfg, lex)
	if err != nil {
		slog.Error("failed to initialise brain", "err", err)
		return 1
	}
	defer closeStore()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("failed to read training file", "path", path, "err", err)
		return 1
	}

	tokens, lines, processed := b.Learn(ctx, string(data))
	fmt.Printf("tokens_learned=%d lines_learned=%d lines_processed=%d\n", tokens, lines, processed)
	return 0
}

// preload reads path and feeds it through Learn once, logging the resulting
// triple at debug level.
func preload(ctx context.Context, b *brain.Brain, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tokens, lines, processed := b.Learn(ctx, string(data))
	slog.Debug("startup training file loaded",
		"path", path, "tokens_learned", tokens, "lines_learned", lines, "lines_processed", processed)
	return nil
}

// ── Serve mode ─────────────────────────────────────────────────────────────────

// runServe starts the health server and runs the stdin REPL described in
// spec.md §1: read a line, call Converse, print the result.
func runServe(cfg *config.Config, lex *lexicon.Lexicon, configPath, healthAddr string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "chatterbox"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown error", "err", err)
		}
	}()

	b, closeStore, err := newBrain(ctx, cfg, lex)
	if err != nil {
		slog.Error("failed to initialise brain", "err", err)
		return 1
	}
	defer closeStore()

	if cfg.Data.TrainingFile != "" {
		if err := preload(ctx, b, cfg.Data.TrainingFile); err != nil {
			slog.Warn("startup training file failed to load", "path", cfg.Data.TrainingFile, "err", err)
		}
	}

	var guard *store.Guard
	if cfg.Storage.PostgresDSN != "" {
		guard = b.StoreGuard()
	}

	srv := newHealthServer(healthAddr, guard)
	go func() {
		slog.Info("health server listening", "addr", healthAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("health server error", "err", err)
		}
	}()

	watcher, err := startWatcher(configPath, b)
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("chatterbox ready — type a line and press enter, Ctrl+C to quit")
	done := make(chan struct{})
	go runREPL(ctx, b, cfg, done)

	select {
	case <-ctx.Done():
	case <-done:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("shutting down…")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("health server shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// runREPL reads lines from stdin until EOF or ctx is cancelled, feeding each
// one through Converse and printing the reply.
func runREPL(ctx context.Context, b *brain.Brain, cfg *config.Config, done chan<- struct{}) {
	defer close(done)
	budget := replyBudget(cfg.Brain)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := sc.Text()
		if line == "" {
			fmt.Println(b.Greet(ctx))
			continue
		}
		fmt.Println(b.Converse(ctx, line, budget))
	}
}

func replyBudget(cfg config.BrainConfig) brain.Budget {
	return brain.Budget{
		Duration:   time.Duration(cfg.ReplyBudgetMS) * time.Millisecond,
		Iterations: cfg.ReplyIterations,
	}
}

// ── Wiring helpers ─────────────────────────────────────────────────────────────

// newBrain constructs a Brain, optionally backed by Postgres persistence.
// When a DSN is configured, it restores the brain from whatever state is
// already persisted rather than starting from the freshly loaded lexicon
// alone. An unreachable database is not fatal — per spec.md §7's
// StorageUnavailable policy, chatterbox falls back to an in-memory-only
// brain rather than refusing to start. The returned close func releases the
// store connection, if any.
func newBrain(ctx context.Context, cfg *config.Config, lex *lexicon.Lexicon) (*brain.Brain, func(), error) {
	opts := []brain.Option{brain.WithSeed(cfg.Brain.Seed)}

	if cfg.Storage.PostgresDSN == "" {
		return brain.New(cfg.Brain.Order, lex, opts...), func() {}, nil
	}

	pg, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		slog.Warn("postgres store unavailable, starting in-memory only", "err", err)
		return brain.New(cfg.Brain.Order, lex, opts...), func() {}, nil
	}

	b := brain.Restore(ctx, cfg.Brain.Order, pg, opts...)
	b.SetLexicon(lex)
	return b, pg.Close, nil
}

// newHealthServer builds the /healthz and /readyz HTTP server, wrapping its
// mux in the tracing/metrics middleware. When guard is non-nil, readiness
// reports the persistence store's degraded status.
func newHealthServer(addr string, guard *store.Guard) *http.Server {
	var checkers []health.Checker
	if guard != nil {
		checkers = append(checkers, health.Checker{
			Name: "store",
			Check: func(_ context.Context) error {
				if guard.IsDegraded() {
					return fmt.Errorf("persistence store is degraded")
				}
				return nil
			},
		})
	}

	mux := http.NewServeMux()
	health.New(checkers...).Register(mux)

	return &http.Server{
		Addr:    addr,
		Handler: observe.Middleware(observe.DefaultMetrics())(mux),
	}
}

// startWatcher polls the config file for changes and applies data-file
// reloads (banned/aux/greeting/swap lists) to the running brain without a
// restart. Order and storage changes are intentionally not hot-reloaded —
// see [config.Diff].
func startWatcher(configPath string, b *brain.Brain) (*config.Watcher, error) {
	return config.NewWatcher(configPath, func(old, new *config.Config) {
		diff := config.Diff(old, new)
		if diff.DataChanged {
			lex, err := loadLexicon(diff.NewData)
			if err != nil {
				slog.Warn("config reload: failed to reload lexicon", "err", err)
				return
			}
			b.SetLexicon(lex)
			slog.Info("config reload: lexicon updated")
		}
	})
}

// loadLexicon reads the four word lists named in cfg into a fresh [lexicon.Lexicon].
// A blank path for any field is treated as "no file configured" and skipped.
func loadLexicon(cfg config.DataConfig) (*lexicon.Lexicon, error) {
	lex := lexicon.New()

	if err := loadWordFile(cfg.BannedFile, lex.Banned); err != nil {
		return nil, fmt.Errorf("banned_file: %w", err)
	}
	if err := loadWordFile(cfg.AuxFile, lex.Aux); err != nil {
		return nil, fmt.Errorf("aux_file: %w", err)
	}
	if err := loadWordFile(cfg.GreetingFile, lex.Greeting); err != nil {
		return nil, fmt.Errorf("greeting_file: %w", err)
	}
	if cfg.SwapFile != "" {
		f, err := os.Open(cfg.SwapFile)
		if err != nil {
			return nil, fmt.Errorf("swap_file: %w", err)
		}
		defer f.Close()
		if err := lexicon.LoadSwapList(f, lex.Swap); err != nil {
			return nil, fmt.Errorf("swap_file: %w", err)
		}
	}
	return lex, nil
}

func loadWordFile(path string, dst map[string]struct{}) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return lexicon.LoadWordList(f, dst)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
