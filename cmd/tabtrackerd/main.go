package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgnsrekt/tabtracker/internal/api"
	"github.com/dgnsrekt/tabtracker/internal/browser"
	"github.com/dgnsrekt/tabtracker/internal/cdp"
	"github.com/dgnsrekt/tabtracker/internal/config"
	"github.com/dgnsrekt/tabtracker/internal/controller"
	"github.com/dgnsrekt/tabtracker/internal/netutil"
	"github.com/dgnsrekt/tabtracker/internal/notify"
	"github.com/dgnsrekt/tabtracker/internal/relay"
	"github.com/dgnsrekt/tabtracker/internal/store"
	"github.com/dgnsrekt/tabtracker/internal/tabstate"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		slog.Debug("log directory creation failed", "error", err)
	}

	logWriter := &lumberjack.Logger{
		Filename:   "logs/tabtrackerd.log",
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting tab tracker daemon")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Configuration loaded",
		"cdp_address", cfg.CDPAddress,
		"cdp_port", cfg.CDPPort,
		"persist", cfg.Persist,
		"state_db", cfg.StatePath,
		"bind_addr", cfg.BindAddr,
		"eager_cleanup", cfg.EagerCleanup,
		"supported_schemes", cfg.SupportedSchemes,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var launcher *browser.Launcher
	if cfg.LaunchBrowser {
		launcher = browser.NewLauncher(browser.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			StartURL:   cfg.StartURL,
			ProfileDir: cfg.ProfileDir,
		})
		if err := launcher.Launch(ctx); err != nil {
			slog.Error("Failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	var kv tabstate.Store
	var db *store.Store
	if cfg.Persist {
		if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
			slog.Error("Failed to create state directory", "error", err)
			os.Exit(1)
		}
		db, err = store.Open(cfg.StatePath)
		if err != nil {
			slog.Error("Failed to open state store", "error", err, "path", cfg.StatePath)
			os.Exit(1)
		}
		defer func() {
			if err := db.Close(); err != nil {
				slog.Warn("State store close failed", "error", err)
			}
		}()
		kv = db
	}

	cache := tabstate.New(kv, cfg.SupportedURL)

	broker := relay.NewBroker()
	cache.OnURLChange(broker.Listener(), true)

	if cfg.NotifyURL != "" {
		cache.OnURLChange(notify.URLChangeListener(cfg.NotifyURL, nil), true)
		slog.Info("URL change notifications enabled", "endpoint", cfg.NotifyURL)
	}

	reactor := tabstate.NewReactor(cache)

	var hooks cdp.LifecycleHooks
	if cfg.EagerCleanup {
		hooks = cache
	}

	client := cdp.NewClient(cfg, reactor, hooks)
	if err := client.Connect(ctx); err != nil {
		slog.Error("Failed to connect to browser", "error", err)
		slog.Info("Make sure Chromium is running with remote debugging enabled")
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Warn("CDP close failed", "error", err)
		}
	}()

	persisted := map[string]json.RawMessage{}
	if db != nil {
		persisted, err = db.Snapshot()
		if err != nil {
			slog.Error("Failed to read persisted tab state", "error", err)
			os.Exit(1)
		}
	}
	cache.Reconcile(persisted, client.LiveTabs())

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.BindFallbacks, true)
	if err != nil {
		slog.Error("Failed to select bind address", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:    bindAddr,
		Handler: api.NewServer(controller.NewService(cache), broker),
	}

	go func() {
		slog.Info("API listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server failed", "error", err)
			sigCh <- syscall.SIGTERM
		}
	}()

	slog.Info("Tracker running", "tabs", client.TabCount())
	slog.Info("Press Ctrl+C to stop")

	<-sigCh
	slog.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("API shutdown failed", "error", err)
	}

	cancel()
	slog.Info("Tracker stopped")
}
