package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/pdf-form-filler/internal/api"
	"github.com/a3tai/pdf-form-filler/internal/config"
	"github.com/a3tai/pdf-form-filler/internal/mcp"
	"github.com/a3tai/pdf-form-filler/internal/pdf"
	"github.com/sirupsen/logrus"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger configures logging based on the front-end
func newLogger(cfg *config.Config, stdout, stderr io.Writer) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.IsStdioMode() {
		// stdout carries the MCP protocol
		logger.SetOutput(stderr)
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	} else {
		logger.SetOutput(stdout)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// runner is a front-end that serves until its context is cancelled
type runner interface {
	Run(ctx context.Context) error
}

func newRunner(cfg *config.Config, service *pdf.Service, logger *logrus.Logger) (runner, error) {
	if cfg.IsStdioMode() {
		return mcp.NewServer(cfg, service, logger)
	}
	return api.NewServer(cfg, service, logger)
}

// run serves until a shutdown signal arrives or the front-end fails
func run(ctx context.Context, server runner, logger *logrus.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.WithField("signal", sig.String()).Info("Received signal, initiating graceful shutdown")
		cancel()
		return <-serverErrCh

	case err := <-serverErrCh:
		return err
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stdout, os.Stderr)
	logger.WithField("config", cfg.String()).Debug("Starting with configuration")

	service := pdf.NewService(cfg.MaxBodySize, logger)
	service.SetCountUnchecked(cfg.CountUnchecked)

	server, err := newRunner(cfg, service, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}

	if err := run(context.Background(), server, logger); err != nil {
		logger.WithError(err).Error("Server stopped with error")
		os.Exit(1)
	}

	logger.Info("Server stopped successfully")
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "PDF Form Filler\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
