package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/gramps-mcp-server/internal/genealogy"
	"github.com/olgasafonova/gramps-mcp-server/metrics"
	"github.com/olgasafonova/gramps-mcp-server/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool specs to genealogy.Service methods.
type HandlerRegistry struct {
	service *genealogy.Service
	logger  *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(service *genealogy.Service, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		service: service,
		logger:  logger,
	}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	registered := 0
	for _, spec := range AllTools {
		if h.registerByName(server, spec) {
			registered++
		}
	}
	h.logger.Info("Registered all tools", "count", registered)
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)
	s := h.service

	switch spec.Method {
	// Search tools
	case "FindType":
		register(h, server, tool, spec, s.FindType)
	case "FindAnything":
		register(h, server, tool, spec, s.FindAnything)
	case "GetType":
		register(h, server, tool, spec, s.GetType)

	// Write tools
	case "CreatePerson":
		register(h, server, tool, spec, s.CreatePerson)
	case "CreateFamily":
		register(h, server, tool, spec, s.CreateFamily)
	case "CreateEvent":
		register(h, server, tool, spec, s.CreateEvent)
	case "CreatePlace":
		register(h, server, tool, spec, s.CreatePlace)
	case "CreateSource":
		register(h, server, tool, spec, s.CreateSource)
	case "CreateCitation":
		register(h, server, tool, spec, s.CreateCitation)
	case "CreateNote":
		register(h, server, tool, spec, s.CreateNote)
	case "CreateMedia":
		register(h, server, tool, spec, s.CreateMedia)
	case "CreateRepository":
		register(h, server, tool, spec, s.CreateRepository)

	// Analysis tools
	case "TreeStats":
		register(h, server, tool, spec, s.TreeStats)
	case "GetDescendants":
		register(h, server, tool, spec, s.GetDescendants)
	case "GetAncestors":
		register(h, server, tool, spec, s.GetAncestors)
	case "RecentChanges":
		register(h, server, tool, spec, s.RecentChanges)

	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	// DestructiveHint defaults to true; write tools set it explicitly.
	if !spec.ReadOnly {
		annotations.DestructiveHint = ptr(spec.Destructive)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the service method with panic recovery, metrics, tracing, and
// logging. Tool failures are returned as error results, not protocol errors,
// so the model sees the message.
func register[Args any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (string, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (result *mcp.CallToolResult, _ any, err error) {
		defer h.recoverPanic(spec.Name, &result)

		// Start trace span
		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		tracing.AddToolAttributes(span, spec.Name, spec.Category)
		span.SetAttributes(attribute.Bool("mcp.tool.readonly", spec.ReadOnly))
		if spec.RecordType != "" {
			span.SetAttributes(attribute.String("gramps.record_type", spec.RecordType))
		}

		// Track in-flight requests
		metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

		start := time.Now()
		text, callErr := method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if callErr != nil {
			tracing.RecordError(span, callErr)
			span.SetStatus(codes.Error, callErr.Error())
			metrics.RecordRequest(spec.Name, duration, false)
			return errorResult(callErr), nil, nil
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordRequest(spec.Name, duration, true)
		h.logExecution(spec, args, text)
		return textResult(text), nil, nil
	})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(err error) *mcp.CallToolResult {
	res := textResult("Error: " + err.Error())
	res.IsError = true
	return res
}

// recoverPanic recovers from panics in tool handlers and turns them into an
// error result.
func (h *HandlerRegistry) recoverPanic(toolName string, result **mcp.CallToolResult) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
		if result != nil {
			*result = errorResult(fmt.Errorf("internal error in %s", toolName))
		}
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, args any, text string) {
	attrs := []any{"tool", spec.Name, "category", spec.Category}

	// Add extractable fields from args using type assertions
	switch a := args.(type) {
	// Search args
	case genealogy.FindTypeArgs:
		attrs = append(attrs, "type", a.Type, "gql", a.GQL)
	case genealogy.FindAnythingArgs:
		attrs = append(attrs, "query", a.Query)
	case genealogy.GetTypeArgs:
		attrs = append(attrs, "type", a.Type, "handle", a.Handle, "gramps_id", a.GrampsID)
	// Write args
	case genealogy.CreatePersonArgs:
		attrs = append(attrs, "handle", a.Handle)
	case genealogy.CreateFamilyArgs:
		attrs = append(attrs, "handle", a.Handle, "children", len(a.ChildHandles))
	case genealogy.CreateEventArgs:
		attrs = append(attrs, "handle", a.Handle, "event_type", a.Type)
	case genealogy.CreatePlaceArgs:
		attrs = append(attrs, "handle", a.Handle, "place_type", a.PlaceType)
	case genealogy.CreateSourceArgs:
		attrs = append(attrs, "handle", a.Handle)
	case genealogy.CreateCitationArgs:
		attrs = append(attrs, "handle", a.Handle, "source_handle", a.SourceHandle)
	case genealogy.CreateNoteArgs:
		attrs = append(attrs, "handle", a.Handle, "note_type", a.Type)
	case genealogy.CreateMediaArgs:
		attrs = append(attrs, "handle", a.Handle, "file_location", a.FileLocation)
	case genealogy.CreateRepositoryArgs:
		attrs = append(attrs, "handle", a.Handle)
	// Analysis args
	case genealogy.LineageArgs:
		attrs = append(attrs, "gramps_id", a.GrampsID, "max_generations", a.MaxGenerations)
	case genealogy.RecentChangesArgs:
		attrs = append(attrs, "page", a.Page, "pagesize", a.Pagesize)
	case genealogy.TreeStatsArgs:
		// No args to log
	}

	attrs = append(attrs, "result_chars", len(text))
	h.logger.Info("Tool executed", attrs...)
}
