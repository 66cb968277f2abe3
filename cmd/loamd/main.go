// Command loamd serves a Loam engine over a unix socket. Clients connect
// with the remote package (or the loam CLI) and use the full store and
// query surface; every connection shares the one engine, so named stores
// are visible across clients.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/loam-project/sdk/engine"
	"github.com/loam-project/sdk/engine/mem"
	"github.com/loam-project/sdk/engine/remote"
)

// Exit codes.
const (
	ExitGeneral = 1
	ExitConfig  = 2
	ExitEngine  = 3
)

func main() {
	fs := flag.NewFlagSet("loamd", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	socket := fs.String("socket", "", "Unix socket path to listen on")
	engineName := fs.String("engine", "", "Engine to serve: mem or native")
	db := fs.String("db", "", "Store path to open at startup and hold until shutdown")
	library := fs.String("library", "", "Native library name or path (engine native)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn or error")
	maxConns := fs.Int("max-conns", 0, "Maximum concurrent client connections")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: loamd [options]

Serve a Loam engine over a unix socket.

Options:
%s`, fs.FlagUsages())
	}
	_ = fs.Parse(os.Args[1:])

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitConfig)
	}

	// Flags outrank the config file.
	if fs.Changed("socket") {
		cfg.Socket = *socket
	}
	if fs.Changed("engine") {
		cfg.Engine = *engineName
	}
	if fs.Changed("db") {
		cfg.DB = *db
	}
	if fs.Changed("library") {
		cfg.Library = *library
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fs.Changed("max-conns") {
		cfg.MaxConns = *maxConns
	}

	runServe(cfg)
}

func runServe(cfg Config) {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitConfig)
	}
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitConfig)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	eng, err := buildEngine(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot build %s engine: %v\n", cfg.Engine, err)
		os.Exit(ExitEngine)
	}

	// A held store keeps cfg.DB resident for the daemon lifetime and fails
	// fast when the engine cannot open it.
	var held engine.StoreHandle
	holding := false
	if cfg.DB != "" {
		held, err = eng.Open(cfg.DB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot open store %s: %v\n", cfg.DB, err)
			os.Exit(ExitEngine)
		}
		holding = true
		log.Info("store held open", "path", cfg.DB)
	}

	srv, err := remote.NewServer(eng, remote.WithLogger(log), remote.WithMaxConnections(cfg.MaxConns))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneral)
	}
	ln, err := remote.Listen(cfg.Socket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneral)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		log.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	log.Info("loamd starting", "pid", os.Getpid(), "engine", cfg.Engine, "socket", cfg.Socket)
	if err := srv.Serve(ctx, ln); err != nil {
		fmt.Fprintf(os.Stderr, "Error: serve failed: %v\n", err)
		os.Exit(ExitGeneral)
	}

	if holding {
		if err := eng.CloseStore(held); err != nil {
			log.Warn("closing held store", "err", err)
		}
	}
	_ = os.Remove(cfg.Socket)
	log.Info("loamd stopped")
}

func buildEngine(cfg Config, log *slog.Logger) (engine.Engine, error) {
	switch cfg.Engine {
	case "mem":
		return mem.New(), nil
	case "native":
		return nativeEngine(cfg, log)
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}
