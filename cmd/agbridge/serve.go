package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bhandras/agbridge/internal/api"
	"github.com/bhandras/agbridge/internal/clock"
	"github.com/bhandras/agbridge/internal/config"
	"github.com/bhandras/agbridge/internal/database"
	"github.com/bhandras/agbridge/internal/debug"
	"github.com/bhandras/agbridge/internal/events"
	"github.com/bhandras/agbridge/internal/journal"
	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/policy"
	"github.com/bhandras/agbridge/internal/state"
	"github.com/bhandras/agbridge/internal/store"
	"github.com/bhandras/agbridge/internal/wake"
	"github.com/bhandras/agbridge/internal/websocket"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context, out io.Writer, cfg *config.Config) error {
	logger.SetOutput(os.Stderr, cfg.Debug)
	logger.SetLevel(cfg.LogLevel)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	clk := clock.Real()

	gate, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		return err
	}

	fileStore := store.NewFileStore(cfg.StatePath(), clk)
	loaded, err := fileStore.Load(store.Default(cfg.StrictModeDefault))
	if err != nil {
		return err
	}

	hub := websocket.NewHub(cfg.AllowedOrigins, clk)
	publisher := events.Fanout{hub}

	var (
		db  *database.DB
		jnl *journal.Journal
	)
	if cfg.Journal {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		logger.Infof("[JOURNAL] Opening database: %s", cfg.JournalPath())
		db, err = database.Open(cfg.JournalPath())
		if err != nil {
			return err
		}
		if cfg.DevPruneJournal {
			logger.Warnf("[DEBUG] AGB_DEV_PRUNE_JOURNAL enabled - pruning audit journal")
			if _, err := debug.PruneJournal(ctx, db.DB); err != nil {
				logger.Warnf("[DEBUG] Failed to prune journal: %v", err)
			}
		}
		jnl = journal.New(db, journal.Options{})
		publisher = append(publisher, jnl)
	}

	waker, err := wake.NewExecWaker(cfg.WakerCmd, "", cfg.WakerTimeout)
	if err != nil {
		return err
	}
	scheduler := wake.NewScheduler(waker, wake.Config{Clock: clk})

	mgr, err := state.NewManager(loaded.Snapshot, state.Options{
		Gate:      gate,
		Publisher: publisher,
		Waker:     scheduler,
		Clock:     clk,
	})
	if err != nil {
		return err
	}
	flusher := store.NewFlusher(fileStore, mgr.Snapshot, store.DefaultFlushDelay, clk)
	mgr.AttachPersister(flusher)

	router := api.NewRouter(api.Deps{
		State:          mgr,
		Hub:            hub,
		Journal:        jnl,
		AllowedOrigins: cfg.AllowedOrigins,
		Debug:          cfg.Debug,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		printBanner(out, cfg.Addr, mgr.PairingCode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Infof("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("HTTP shutdown: %v", err)
		}
		return nil
	})

	err = g.Wait()

	// Observers close before the final snapshot is written.
	hub.Close()
	scheduler.Stop()
	if ferr := flusher.Close(); ferr != nil {
		logger.Errorf("[PERSIST] Final save failed: %v", ferr)
	}
	if jnl != nil {
		if jerr := jnl.Close(); jerr != nil {
			logger.Warnf("[JOURNAL] Close: %v", jerr)
		}
		if derr := db.Close(); derr != nil {
			logger.Warnf("[JOURNAL] Close database: %v", derr)
		}
	}
	return err
}
