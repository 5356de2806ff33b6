// Gramps MCP Server - A Model Context Protocol server for Gramps Web family trees
// Provides tools for searching, reading, and editing genealogy records
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/gramps-mcp-server/internal/auth"
	"github.com/olgasafonova/gramps-mcp-server/internal/base"
	"github.com/olgasafonova/gramps-mcp-server/internal/config"
	"github.com/olgasafonova/gramps-mcp-server/internal/genealogy"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
	"github.com/olgasafonova/gramps-mcp-server/resources"
	"github.com/olgasafonova/gramps-mcp-server/tools"
	"github.com/olgasafonova/gramps-mcp-server/tracing"
	"github.com/spf13/cobra"
)

const (
	ServerName    = "gramps-mcp-server"
	ServerVersion = "1.0.0"
)

// recoverPanic logs a panic with its stack instead of crashing the process
func recoverPanic(logger *slog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flagOverrides are command line settings that win over file and environment.
type flagOverrides struct {
	transport string
	addr      string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		flags      flagOverrides
	)

	root := &cobra.Command{
		Use:   "gramps-mcp-server [stdio|http]",
		Short: "MCP server for Gramps Web API genealogy operations",
		Long: `Gramps MCP Server exposes a Gramps Web family tree to MCP clients.

Connection settings come from an optional YAML or TOML file (--config) and the
GRAMPS_API_URL, GRAMPS_USERNAME, GRAMPS_PASSWORD and GRAMPS_TREE_ID variables.`,
		Example: `
gramps-mcp-server stdio

gramps-mcp-server http --addr 127.0.0.1:8000

gramps-mcp-server --config gramps.yaml --log-level debug
`,
		Args:          cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs:     []string{config.TransportStdio, config.TransportHTTP},
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := applyOverrides(cfg, args, flags); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, newLogger(cfg))
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", os.Getenv("GRAMPS_MCP_CONFIG"), "path to a YAML or TOML config file")
	root.Flags().StringVarP(&flags.transport, "transport", "t", "", "transport to serve: stdio or http")
	root.Flags().StringVar(&flags.addr, "addr", "", "listen address for the http transport")
	root.Flags().StringVarP(&flags.logLevel, "log-level", "l", "", "log level: debug, info, warn or error")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ServerName, ServerVersion)
		},
	})

	return root
}

// applyOverrides layers the positional transport and flags over cfg.
func applyOverrides(cfg *config.Config, args []string, flags flagOverrides) error {
	if flags.transport != "" {
		cfg.Transport = flags.transport
	}
	if len(args) == 1 {
		if flags.transport != "" && flags.transport != args[0] {
			return fmt.Errorf("transport given twice: %q and --transport %q", args[0], flags.transport)
		}
		cfg.Transport = args[0]
	}
	if flags.addr != "" {
		cfg.Addr = flags.addr
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg.Validate()
}

// newLogger logs to stderr; stdout carries the stdio protocol.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, tracing.DefaultConfig(ServerVersion))
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	client := newGrampsClient(cfg, logger)
	defer client.Close()

	server := newMCPServer(client, logger)

	logger.Info("Starting Gramps MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"transport", cfg.Transport,
		"api_url", cfg.APIBase(),
		"tree_id", cfg.TreeID,
	)

	switch cfg.Transport {
	case config.TransportHTTP:
		return serveHTTP(ctx, cfg, server, logger)
	default:
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

func newGrampsClient(cfg *config.Config, logger *slog.Logger) *gramps.Client {
	httpClient := base.NewClient(
		base.WithLogger(logger),
		base.WithTimeout(cfg.Timeout),
		base.WithMaxRetry(cfg.MaxRetries),
	)
	tokens := auth.NewTokenManager(httpClient, logger, cfg.APIBase(), cfg.Username, cfg.Password)
	return gramps.NewClient(httpClient, tokens, logger, gramps.Options{
		APIBase:   cfg.APIBase(),
		TreeID:    cfg.TreeID,
		CacheTTL:  cfg.CacheTTL,
		CacheSize: cfg.CacheSize,
	})
}

// newMCPServer builds the MCP server with every tool and resource registered.
func newMCPServer(api genealogy.API, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: instructions,
	})

	service := genealogy.New(api, logger)
	tools.NewHandlerRegistry(service, logger).RegisterAll(server)
	resources.RegisterAll(server, logger)
	return server
}

const instructions = `Gramps MCP Server provides tools for searching and editing a Gramps Web family tree.

Read the gramps://usage-guide resource before using any create tool, and the
gql://documentation resource before writing GQL queries.

Search tools: find_type, find_anything, get_type
Write tools: create_person, create_family, create_event, create_place, create_source,
create_citation, create_note, create_media, create_repository
Analysis tools: tree_stats, get_descendants, get_ancestors, recent_changes

Always search before creating, and pass the handle of an existing record to update it.`
