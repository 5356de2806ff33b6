// Package format renders Gramps records as the compact text blocks returned
// by the MCP tools. Each record starts with a header line ending in
// "- gramps_id - [handle]" so callers can pick handles back out of the text.
package format

import (
	"context"
	"log/slog"
	"strings"

	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
)

// Fetcher is the slice of the Gramps client the formatters need.
type Fetcher interface {
	Record(ctx context.Context, kind gramps.Kind, handle string, params gramps.Params) (gramps.Object, error)
	Call(ctx context.Context, ep gramps.Endpoint, params gramps.Params, path gramps.PathParams) (any, error)
}

// Formatter fetches referenced records and renders them.
type Formatter struct {
	api    Fetcher
	logger *slog.Logger
}

// New creates a Formatter.
func New(api Fetcher, logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Formatter{api: api, logger: logger}
}

var (
	extendAll       = gramps.Params{"extend": "all"}
	extendBacklinks = gramps.Params{"extend": "backlinks", "backlinks": true}
)

// personName joins the first name with the first surname.
func personName(p gramps.Object) string {
	name := p.Obj("primary_name")
	if len(name) == 0 {
		return ""
	}
	surname := ""
	if list := name.Objects("surname_list"); len(list) > 0 {
		surname = list[0].Str("surname")
	}
	return strings.TrimSpace(name.Str("first_name") + " " + surname)
}

// detailName is personName with "Unknown" for records without a primary name.
func detailName(p gramps.Object) string {
	if len(p.Obj("primary_name")) == 0 {
		return "Unknown"
	}
	return personName(p)
}

func genderLetter(p gramps.Object) string {
	switch p.IntOr("gender", 2) {
	case 0:
		return "F"
	case 1:
		return "M"
	default:
		return "U"
	}
}

// refHandle accepts either a reference object {"ref": h} or a bare handle.
func refHandle(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if o := gramps.AsObject(v); o != nil {
		return o.Str("ref")
	}
	return ""
}

// grampsIDs resolves handles of kind to their Gramps IDs. Records that fail
// to load or carry no ID are left out.
func (f *Formatter) grampsIDs(ctx context.Context, kind gramps.Kind, refs []any) []string {
	var ids []string
	for _, ref := range refs {
		handle := refHandle(ref)
		if handle == "" {
			continue
		}
		rec, err := f.api.Record(ctx, kind, handle, nil)
		if err != nil {
			f.logger.Debug("Skipping unresolvable reference", "kind", kind, "handle", handle, "error", err)
			continue
		}
		if id := rec.GrampsID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// objectRefs keeps only the reference objects of a list.
func objectRefs(list []any) []any {
	var out []any
	for _, item := range list {
		if gramps.AsObject(item) != nil {
			out = append(out, item)
		}
	}
	return out
}

// urlLines renders "path - description" for each URL with a path. Gramps
// names the field "desc"; "description" is accepted too.
func urlLines(urls []gramps.Object) []string {
	var lines []string
	for _, u := range urls {
		path := u.Str("path")
		if path == "" {
			continue
		}
		desc := u.StrOr("description", u.Str("desc"))
		if desc != "" {
			path += " - " + desc
		}
		lines = append(lines, path)
	}
	return lines
}

// eventAt returns extended event i, or nil when i is out of range.
func eventAt(events []gramps.Object, i int) gramps.Object {
	if i < 0 || i >= len(events) {
		return nil
	}
	return events[i]
}

// eventSummaries renders "type, role (gid)" for each event reference that
// has a matching extended event.
func eventSummaries(refs []any, events []gramps.Object) []string {
	var out []string
	for i, ref := range refs {
		if i >= len(events) {
			break
		}
		ev := events[i]
		role := ""
		if o := gramps.AsObject(ref); o != nil {
			role = o.Str("role")
		}
		if role != "" {
			out = append(out, ev.Str("type")+", "+role+" ("+ev.GrampsID()+")")
		} else {
			out = append(out, ev.Str("type")+" ("+ev.GrampsID()+")")
		}
	}
	return out
}

// noteText returns the plain text of a note, which the API sends as a
// StyledText object.
func noteText(note gramps.Object) string {
	if styled := note.Obj("text"); styled != nil {
		return styled.Str("string")
	}
	return note.Str("text")
}

func truncateRunes(s string, max int, suffix string) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-len([]rune(suffix))]) + suffix
}
