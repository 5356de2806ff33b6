// Package tools provides a metadata-driven registry for MCP tool definitions.
// Tools are declared as data and registered through type-safe handlers, so
// main.go only wires the registry to the server.
package tools

// Tool categories.
const (
	CategorySearch   = "search"
	CategoryWrite    = "write"
	CategoryAnalysis = "analysis"
)

// ToolSpec defines a tool's metadata for declarative registration.
// Each spec maps to a genealogy.Service method with matching Args type.
type ToolSpec struct {
	// Name is the MCP tool name (e.g., "find_type")
	Name string

	// Method is the service method name (e.g., "FindType")
	Method string

	// Description is the tool description shown to LLMs
	Description string

	// Title is the human-readable tool title for annotations
	Title string

	// Category groups tools logically (search, write, analysis)
	Category string

	// RecordType is the Gramps record type a write tool saves, if any
	RecordType string

	// ReadOnly indicates the tool doesn't modify the tree
	ReadOnly bool

	// Destructive indicates the tool can delete or overwrite data
	Destructive bool

	// Idempotent indicates repeated calls have the same effect
	Idempotent bool

	// OpenWorld indicates the tool accesses external resources
	OpenWorld bool
}

// ToolsByCategory returns the specs in category, in declaration order.
func ToolsByCategory(category string) []ToolSpec {
	var out []ToolSpec
	for _, spec := range AllTools {
		if spec.Category == category {
			out = append(out, spec)
		}
	}
	return out
}

// ToolNames returns the names of all tools.
func ToolNames() []string {
	names := make([]string, 0, len(AllTools))
	for _, spec := range AllTools {
		names = append(names, spec.Name)
	}
	return names
}

// ptr is a helper to create a pointer to a value.
func ptr[T any](v T) *T {
	return &v
}
