package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
)

// maxPlaceDepth bounds the walk up enclosing places.
const maxPlaceDepth = 32

// Place renders a place as "type: hierarchy - gid - [handle]" plus URL lines.
func (f *Formatter) Place(ctx context.Context, handle string) string {
	if handle == "" {
		return "• **Place**\n  No handle provided\n\n"
	}
	place, err := f.api.Record(ctx, gramps.Places, handle, nil)
	if err != nil {
		f.logger.Debug("Failed to format place", "handle", handle, "error", err)
		return fmt.Sprintf("• **Place %s**\n  Error formatting place: %s\n\n", handle, err)
	}
	if len(place) == 0 {
		return fmt.Sprintf("• **Place %s**\n  Place not found\n\n", handle)
	}

	hierarchy, err := f.placeHierarchy(ctx, place)
	if err != nil {
		f.logger.Debug("Failed to format place", "handle", handle, "error", err)
		return fmt.Sprintf("• **Place %s**\n  Error formatting place: %s\n\n", handle, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s - %s - [%s]", place.Str("place_type"), hierarchy, place.GrampsID(), handle)
	for _, line := range urlLines(place.Objects("urls")) {
		b.WriteString("\n" + line)
	}
	b.WriteString("\n\n")
	return b.String()
}

// PlaceInline returns only the place hierarchy, or "" when it cannot be
// resolved.
func (f *Formatter) PlaceInline(ctx context.Context, handle string) string {
	if handle == "" {
		return ""
	}
	place, err := f.api.Record(ctx, gramps.Places, handle, nil)
	if err != nil || len(place) == 0 {
		return ""
	}
	hierarchy, err := f.placeHierarchy(ctx, place)
	if err != nil {
		f.logger.Debug("Failed to resolve place hierarchy", "handle", handle, "error", err)
		return ""
	}
	return hierarchy
}

// placeHierarchy prefers the stored title, which already holds the full
// hierarchy. Without one it joins the place name with its enclosing places,
// stopping at the first ancestor that has a title.
func (f *Formatter) placeHierarchy(ctx context.Context, place gramps.Object) (string, error) {
	if title := place.Str("title"); title != "" {
		return title, nil
	}

	var names []string
	if name := place.Obj("name").Str("value"); name != "" {
		names = append(names, name)
	}

	refs := place.Objects("placeref_list")
	for depth := 0; len(refs) > 0 && depth < maxPlaceDepth; depth++ {
		parentHandle := refs[0].Str("ref")
		if parentHandle == "" {
			break
		}
		parent, err := f.api.Record(ctx, gramps.Places, parentHandle, nil)
		if err != nil {
			return "", err
		}
		if len(parent) == 0 {
			break
		}
		if title := parent.Str("title"); title != "" {
			names = append(names, title)
			break
		}
		if name := parent.Obj("name").Str("value"); name != "" {
			names = append(names, name)
		}
		refs = parent.Objects("placeref_list")
	}
	return strings.Join(names, ", "), nil
}
