// Package resources serves the static MCP resources: the GQL reference, the
// usage guide and the JSON Schemas of date and name objects.
package resources

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/gramps-mcp-server/internal/genealogy"
)

// Resource URIs.
const (
	GQLDocumentationURI = "gql://documentation"
	UsageGuideURI       = "gramps://usage-guide"
	DateSchemaURI       = "gramps://schema/date"
	NameSchemaURI       = "gramps://schema/name"
)

const (
	markdownMIME = "text/markdown"
	schemaMIME   = "application/schema+json"
)

//go:embed gql-documentation.md
var gqlDocumentation string

//go:embed usage-guide.md
var usageGuide string

// UsageGuide returns the usage guide as markdown.
func UsageGuide() string { return usageGuide }

type entry struct {
	resource *mcp.Resource
	content  func() (string, error)
}

func static(s string) func() (string, error) {
	return func() (string, error) { return s, nil }
}

func schema(v any) func() (string, error) {
	return func() (string, error) {
		raw, err := genealogy.SchemaFor(v)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

var all = []entry{
	{
		resource: &mcp.Resource{
			URI:         GQLDocumentationURI,
			Name:        "gql-documentation",
			Title:       "GQL Documentation",
			Description: "Complete GQL documentation, syntax, examples, and property reference for Gramps queries.",
			MIMEType:    markdownMIME,
		},
		content: static(gqlDocumentation),
	},
	{
		resource: &mcp.Resource{
			URI:         UsageGuideURI,
			Name:        "usage-guide",
			Title:       "Gramps Usage Guide",
			Description: "IMPORTANT: Read this first before using ANY creation tools - explains proper genealogy workflow and tool usage order.",
			MIMEType:    markdownMIME,
		},
		content: static(usageGuide),
	},
	{
		resource: &mcp.Resource{
			URI:         DateSchemaURI,
			Name:        "date-schema",
			Title:       "Date Object Schema",
			Description: "JSON Schema of the date objects accepted by create_event, create_citation and create_media.",
			MIMEType:    schemaMIME,
		},
		content: schema(&genealogy.DateObject{}),
	},
	{
		resource: &mcp.Resource{
			URI:         NameSchemaURI,
			Name:        "name-schema",
			Title:       "Name Object Schema",
			Description: "JSON Schema of the primary_name object accepted by create_person.",
			MIMEType:    schemaMIME,
		},
		content: schema(&genealogy.NameObject{}),
	},
}

// URIs returns the URIs of all resources.
func URIs() []string {
	uris := make([]string, 0, len(all))
	for _, e := range all {
		uris = append(uris, e.resource.URI)
	}
	return uris
}

// RegisterAll adds every resource to the server.
func RegisterAll(server *mcp.Server, logger *slog.Logger) {
	for _, e := range all {
		server.AddResource(e.resource, handler(e, logger))
	}
	logger.Info("Registered all resources", "count", len(all))
}

func handler(e entry, logger *slog.Logger) mcp.ResourceHandler {
	return func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		text, err := e.content()
		if err != nil {
			logger.Error("Failed to render resource", "uri", e.resource.URI, "error", err)
			return nil, fmt.Errorf("loading resource %s: %w", e.resource.URI, err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: e.resource.MIMEType,
				Text:     text,
			}},
		}, nil
	}
}
