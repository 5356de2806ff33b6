package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
)

// MaxNoteLength caps note text in summaries.
const MaxNoteLength = 500

// citationTargets are the backlink kinds listed under "Attached to".
var citationTargets = []string{"person", "family", "event"}

// Source renders a source with author, publication info and repositories.
func (f *Formatter) Source(ctx context.Context, handle string) string {
	if handle == "" {
		return "• **Unknown Source**\n  No handle provided\n\n"
	}
	source, err := f.api.Record(ctx, gramps.Sources, handle, nil)
	if err != nil {
		f.logger.Debug("Failed to format source", "handle", handle, "error", err)
		return fmt.Sprintf("• **Source %s**\n  Error formatting source: %s\n\n", handle, err)
	}
	if len(source) == 0 {
		return fmt.Sprintf("• **Source %s**\n  Source not found\n\n", handle)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s - [%s]", strings.TrimSpace(source.Str("title")), source.GrampsID(), handle)

	var byline []string
	for _, key := range []string{"author", "pubinfo"} {
		if v := strings.TrimSpace(source.Str(key)); v != "" {
			byline = append(byline, v)
		}
	}
	if len(byline) > 0 {
		b.WriteString("\n" + strings.Join(byline, " - "))
	}

	for _, ref := range source.Objects("reporef_list") {
		repoHandle := ref.Str("ref")
		if repoHandle == "" {
			continue
		}
		repo, err := f.api.Record(ctx, gramps.Repositories, repoHandle, nil)
		if err != nil {
			continue
		}
		name := strings.TrimSpace(repo.Str("name"))
		if name != "" && repo.GrampsID() != "" {
			b.WriteString("\n" + name + " - " + repo.GrampsID())
		}
	}

	for _, line := range f.attachmentLines(ctx, objectRefs(source.List("media_list")), source.List("note_list")) {
		b.WriteString("\n" + line)
	}
	b.WriteString("\n\n")
	return b.String()
}

// Citation renders a citation with its source title, page, date, attachments
// and the people, families and events citing it.
func (f *Formatter) Citation(ctx context.Context, handle string) string {
	if handle == "" {
		return "• **Unknown Citation**\n  No handle provided\n\n"
	}
	citation, err := f.api.Record(ctx, gramps.Citations, handle, extendBacklinks)
	if err != nil {
		f.logger.Debug("Failed to format citation", "handle", handle, "error", err)
		return fmt.Sprintf("• **Citation %s**\n  Error formatting citation: %s\n\n", handle, err)
	}
	if len(citation) == 0 {
		return fmt.Sprintf("• **Citation %s**\n  Citation not found\n\n", handle)
	}

	var heading []string
	if sh := citation.Str("source_handle"); sh != "" {
		if source, err := f.api.Record(ctx, gramps.Sources, sh, nil); err == nil {
			if title := strings.TrimSpace(source.Str("title")); title != "" {
				heading = append(heading, title)
			}
		}
	}
	if page := strings.TrimSpace(citation.Str("page")); page != "" {
		heading = append(heading, page)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s - [%s]", strings.Join(heading, ", "), citation.GrampsID(), handle)

	if date := citation.Obj("date"); len(date) > 0 {
		if s := Date(date); s != DateUnknown {
			b.WriteString("\n" + s)
		}
	}
	for _, line := range f.attachmentLines(ctx, objectRefs(citation.List("media_list")), citation.List("note_list")) {
		b.WriteString("\n" + line)
	}

	backlinks := citation.Extended().Obj("backlinks")
	var targets []string
	for _, kind := range citationTargets {
		for _, rec := range backlinks.Objects(kind) {
			if id := rec.GrampsID(); id != "" {
				targets = append(targets, id)
			}
		}
	}
	if len(targets) > 0 {
		b.WriteString("\nAttached to: " + strings.Join(targets, ", "))
	}
	b.WriteString("\n\n")
	return b.String()
}

// Repository renders "type: name - gid - [handle]" with URLs and notes.
// Failures render as "".
func (f *Formatter) Repository(ctx context.Context, handle string) string {
	if handle == "" {
		return ""
	}
	repo, err := f.api.Record(ctx, gramps.Repositories, handle, nil)
	if err != nil {
		f.logger.Debug("Failed to format repository", "handle", handle, "error", err)
		return ""
	}
	if len(repo) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s - %s - [%s]", repo.Str("type"), strings.TrimSpace(repo.Str("name")), repo.GrampsID(), handle)
	for _, line := range urlLines(repo.Objects("urls")) {
		b.WriteString("\n" + line)
	}
	if ids := f.grampsIDs(ctx, gramps.Notes, repo.List("note_list")); len(ids) > 0 {
		b.WriteString("\nAttached notes: " + strings.Join(ids, ", "))
	}
	b.WriteString("\n\n")
	return b.String()
}

// Note renders "type Note - gid - [handle]" followed by the text, capped at
// MaxNoteLength characters. Notes without text render as "".
func (f *Formatter) Note(ctx context.Context, handle string) string {
	if handle == "" {
		return ""
	}
	note, err := f.api.Record(ctx, gramps.Notes, handle, nil)
	if err != nil {
		f.logger.Debug("Failed to format note", "handle", handle, "error", err)
		return ""
	}
	text := strings.TrimSpace(noteText(note))
	if text == "" {
		return ""
	}
	text = truncateRunes(text, MaxNoteLength, "...")
	return fmt.Sprintf("%s Note - %s - [%s]\n%s\n\n", note.Str("type"), note.GrampsID(), handle, text)
}

// Media renders "mime - gid - [handle]" and the description with its date.
func (f *Formatter) Media(ctx context.Context, handle string) string {
	if handle == "" {
		return "**Unknown Media**\n  No handle provided\n\n"
	}
	media, err := f.api.Record(ctx, gramps.Media, handle, nil)
	if err != nil {
		f.logger.Debug("Failed to format media", "handle", handle, "error", err)
		return fmt.Sprintf("**Media %s**\n  Error formatting media: %s\n\n", handle, err)
	}
	if len(media) == 0 {
		return fmt.Sprintf("**Media %s**\n  Media not found\n\n", handle)
	}

	desc := strings.TrimSpace(media.Str("desc"))
	if desc == "" {
		desc = "No description"
	}
	if date := media.Obj("date"); len(date) > 0 {
		if s := Date(date); s != DateUnknown {
			desc += " - " + s
		}
	}
	mime := strings.TrimSpace(media.Str("mime"))
	if mime == "" {
		mime = "unknown type"
	}
	return fmt.Sprintf("%s - %s - [%s]\n%s\n\n", mime, media.StrOr("gramps_id", "N/A"), handle, desc)
}
