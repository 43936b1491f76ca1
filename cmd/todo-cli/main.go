package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/term"

	appLogger "github.com/FACorreiaa/go-todo-api/app/logger"
	"github.com/FACorreiaa/go-todo-api/internal/client"
	"github.com/FACorreiaa/go-todo-api/internal/client/cli"
)

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	server := flag.String("a", envOr("TODO_API_URL", "http://localhost:8080"), "todo API base URL")
	sessionPath := flag.String("s", filepath.Join(home, ".todo-cli", "session.db"), "session database file")
	verbose := flag.Bool("v", false, "log HTTP traffic to stderr")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = appLogger.New("development", os.Stderr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := client.OpenSQLiteSessionStore(ctx, *sessionPath)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer store.Close()

	api := client.NewAPIClient(*server, store, client.WithLogger(logger))

	var readPassword cli.PasswordFunc
	if term.IsTerminal(int(os.Stdin.Fd())) {
		readPassword = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
	}

	if err = cli.New(api, os.Stdin, os.Stdout, readPassword).Run(ctx); err != nil {
		logger.Error("CLI stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
