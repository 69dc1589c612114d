package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"autodeploy/internal/deployment"
	"autodeploy/internal/security"
	"autodeploy/internal/server"
)

const shutdownTimeout = 30 * time.Second

var (
	logFile  string
	host     string
	port     int
	testMode bool
	copyOut  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start an HTTP server exposing deployments and the location history.

POST /deploy runs one deployment with the target taken from the request body;
GET /history and GET /history/{name} read remembered locations.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&logFile, "log", "", "Path to log file (env AUTODEPLOY_LOG_FILE, default ./autodeploy.log)")
	serveCmd.Flags().StringVar(&host, "host", "", "Host to bind to (env AUTODEPLOY_HOST, default 127.0.0.1)")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (env AUTODEPLOY_PORT, default 5000)")
	serveCmd.Flags().BoolVar(&testMode, "test-mode", false, "Disable rate limiting")
	serveCmd.Flags().BoolVar(&copyOut, "copy", true, "Copy build output for confirmed deployments")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logFile == "" {
		logFile = getEnvOrDefault("AUTODEPLOY_LOG_FILE", "./autodeploy.log")
	}
	if host == "" {
		host = getEnvOrDefault("AUTODEPLOY_HOST", "127.0.0.1")
	}
	if port == 0 {
		port = getEnvOrDefaultInt("AUTODEPLOY_PORT", 5000)
	}

	level, err := parseLogLevel(logLevel)
	if err != nil {
		return err
	}
	// The server is quiet by default only for interactive commands
	if !cmd.Flags().Changed("log-level") {
		level = slog.LevelInfo
	}

	// Set up logging
	logger, logFileHandle, err := setupLogging(logFile, level)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logFileHandle.Close()

	logger.Info("Starting autodeploy", "version", version)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := openWorkspace(ctx, logger)
	if err != nil {
		logger.Error("Failed to open workspace", "error", err)
		return err
	}
	defer ws.Close()

	if ws.Registry.Count() == 0 {
		logger.Warn("No projects configured in config file", "config", ws.ConfigPath)
		logger.Warn("The server will start but every deployment will fail until projects are added")
	}

	srv := server.NewServer(ws.Registry, ws.History, logger, testMode)
	srv.BasePath = ws.Config.BasePath
	srv.DefaultTarget = ws.Config.DefaultTarget
	if copyOut {
		srv.Copier = deployment.NewExecutor()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(host, port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", "error", err)
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}

// setupLogging configures slog for file logging
// Returns both the logger and the file handle (caller must close the file)
func setupLogging(logPath string, level slog.Level) (*slog.Logger, *os.File, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, security.PermDirectory); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, security.PermLogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// OpenFile only applies the mode on creation
	if err := security.FixFilePermissions(logPath, security.PermLogFile); err != nil {
		file.Close()
		return nil, nil, err
	}

	// Log to both file and console
	multiWriter := io.MultiWriter(os.Stdout, file)

	handler := slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler), file, nil
}
