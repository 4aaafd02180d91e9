package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shidubei/DigitalOcean-ObjectSpaces/config"
	spaceshttp "github.com/shidubei/DigitalOcean-ObjectSpaces/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the spaces HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: SPACES_SERVER_PORT)")
	serveCmd.Flags().String("base-path", "/api/v1/spaces", "path prefix of every route (env: SPACES_SERVER_BASE_PATH)")
	serveCmd.Flags().Int64("max-upload-size", spaceshttp.DefaultMaxUploadSize, "maximum upload body size in bytes (env: SPACES_SERVER_MAX_UPLOAD_SIZE)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	service, err := newService(cfg)
	if err != nil {
		return err
	}

	// An unreachable bucket is not fatal, the health endpoint reports it.
	if err := service.Ping(ctx); err != nil {
		slog.Warn("bucket not reachable at startup", "bucket", cfg.Spaces.BucketName, "err", err)
	} else {
		slog.Info("connected to bucket", "bucket", cfg.Spaces.BucketName, "endpoint", cfg.Spaces.EndpointURL())
	}

	handlerConfig := spaceshttp.HandlerConfig{
		BasePath:      cfg.Server.BasePath,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
	}

	handler := spaceshttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  config.Timeout(cfg.Server.ReadTimeout),
		WriteTimeout: config.Timeout(cfg.Server.WriteTimeout),
		IdleTimeout:  config.Timeout(cfg.Server.IdleTimeout),
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting server", "addr", addr, "base_path", cfg.Server.BasePath)
	return serveUntilDone(sigCtx, server, ln, config.Timeout(cfg.Server.ShutdownTimeout))
}

// serveUntilDone serves on ln until ctx is cancelled, then shuts the server
// down and returns only once in-flight requests have drained or the
// shutdown timeout expired.
func serveUntilDone(ctx context.Context, server *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
