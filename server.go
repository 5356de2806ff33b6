package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/gramps-mcp-server/internal/config"
	"github.com/olgasafonova/gramps-mcp-server/resources"
	"github.com/olgasafonova/gramps-mcp-server/tools"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
)

const (
	serviceName     = "Gramps MCP Server"
	shutdownTimeout = 10 * time.Second
)

const guidePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Gramps MCP Usage Guide</title>
<style>body{font-family:sans-serif;max-width:48rem;margin:2rem auto;padding:0 1rem;line-height:1.5}pre{background:#f4f4f4;padding:.5rem;overflow-x:auto}</style>
</head>
<body>
%s
</body>
</html>
`

// renderGuide converts the usage guide to a standalone HTML page.
func renderGuide() ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(resources.UsageGuide()), &body); err != nil {
		return nil, fmt.Errorf("rendering usage guide: %w", err)
	}
	return fmt.Appendf(nil, guidePage, body.String()), nil
}

// newHTTPHandler routes the MCP endpoint and the service endpoints behind the
// security middleware.
func newHTTPHandler(server *mcp.Server, cfg *config.Config, logger *slog.Logger) (*SecurityMiddleware, error) {
	guide, err := renderGuide()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"service":      serviceName,
			"version":      ServerVersion,
			"description":  "MCP server for Gramps Web API genealogy operations",
			"mcp_endpoint": "/mcp",
			"tools_count":  len(tools.AllTools),
		})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"status":  "healthy",
			"service": serviceName,
			"tools":   len(tools.AllTools),
		})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /guide", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(guide)
	})

	return NewSecurityMiddleware(mux, logger, SecurityConfig{
		RateLimit:   cfg.RateLimit,
		MaxBodySize: cfg.MaxBodySize,
	}), nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// serveHTTP serves until ctx is done, then shuts down gracefully.
func serveHTTP(ctx context.Context, cfg *config.Config, server *mcp.Server, logger *slog.Logger) error {
	handler, err := newHTTPHandler(server, cfg, logger)
	if err != nil {
		return err
	}
	defer handler.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer recoverPanic(logger, "http server")
		logger.Info("Listening", "addr", cfg.Addr, "mcp_endpoint", "/mcp")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
