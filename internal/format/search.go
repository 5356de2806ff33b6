package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
)

// ByKind renders one record with the formatter for its kind.
func (f *Formatter) ByKind(ctx context.Context, kind gramps.Kind, handle string) string {
	switch kind {
	case gramps.People:
		return f.Person(ctx, handle)
	case gramps.Families:
		return f.Family(ctx, handle)
	case gramps.Events:
		return f.Event(ctx, handle)
	case gramps.Places:
		return f.Place(ctx, handle)
	case gramps.Sources:
		return f.Source(ctx, handle)
	case gramps.Citations:
		return f.Citation(ctx, handle)
	case gramps.Repositories:
		return f.Repository(ctx, handle)
	case gramps.Notes:
		return f.Note(ctx, handle)
	case gramps.Media:
		return f.Media(ctx, handle)
	default:
		return fmt.Sprintf("• **%s** (Handle: `%s`)\n\n", kind, handle)
	}
}

// SearchResult renders one full-text search hit, {"object_type", "object"}.
func (f *Formatter) SearchResult(ctx context.Context, item gramps.Object) string {
	objType := strings.ToLower(item.Str("object_type"))
	obj := item.Obj("object")
	label := capitalize(objType)

	handle := obj.Handle()
	if handle == "" {
		return fmt.Sprintf("• **%s record** (No handle available)\n\n", label)
	}

	if kind, ok := gramps.KindFor(objType); ok && kind != gramps.Tags {
		return f.ByKind(ctx, kind, handle)
	}

	title := obj.Str("title")
	if title == "" {
		title = obj.StrOr("desc", label+" record")
	}
	return fmt.Sprintf("• **%s** (%s - ID: %s)\n\n", title, label, obj.StrOr("gramps_id", "N/A"))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
