package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"pwshare/pkg/auth"
	"pwshare/pkg/config"
	"pwshare/pkg/logger"
	"pwshare/pkg/sessions"
	"pwshare/pkg/shares"
	"pwshare/server"
)

func main() {
	configPath := flag.String("config", "", "Config file path (optional)")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "Log format: text or json")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Init(logger.InfoLevel, "text")
		logger.Get().ErrorWithErr("failed to load configuration", err)
		os.Exit(1)
	}

	if *addr != "" {
		cfg.Address = *addr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	logger.Init(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format)
	log := logger.Get()
	log.Info("server starting", "config", cfg.String())

	if cfg.Sessions.ScopeKey == "" {
		log.Error("no scope signing key configured, set sessions.scope_key or SECRET_KEY")
		os.Exit(1)
	}

	store, err := sessions.New(cfg.Sessions)
	if err != nil {
		log.ErrorWithErr("failed to open session store", err)
		os.Exit(1)
	}
	defer store.Close()

	shareStore := shares.NewStore(cfg.SharesDir, cfg.StaticDir)
	engine := auth.NewEngine(store, shareStore, cfg.SessionTimeout())

	sweeper := sessions.NewSweeper(store, cfg.SweepInterval())
	sweeper.Start()
	defer sweeper.Stop()

	srv := server.New(cfg, engine, shareStore, store)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.ErrorWithErr("server stopped", err)
		os.Exit(1)
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	}
}
