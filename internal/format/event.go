package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
)

// Event renders an event with its primary participant in the header, the
// date and place, all participants and its attachments. Family events name
// both spouses.
func (f *Formatter) Event(ctx context.Context, handle string) string {
	if handle == "" {
		return "• **Unknown Event**\n  No handle provided\n\n"
	}
	event, err := f.api.Record(ctx, gramps.Events, handle, extendBacklinks)
	if err != nil {
		f.logger.Debug("Failed to format event", "handle", handle, "error", err)
		return fmt.Sprintf("• **Event %s**\n  Error formatting event: %s\n\n", handle, err)
	}
	if len(event) == 0 {
		return fmt.Sprintf("• **Event %s**\n  Event not found\n\n", handle)
	}

	date := Date(event.Obj("date"))
	place := f.PlaceInline(ctx, event.Str("place"))

	primary := ""
	var participants []string
	backlinks := event.Extended().Obj("backlinks")

	for _, p := range backlinks.Objects("person") {
		role := "Unknown"
		for _, ref := range p.Objects("event_ref_list") {
			if ref.Str("ref") == handle {
				role = ref.StrOr("role", "Unknown")
				break
			}
		}
		if role == "Primary" && primary == "" {
			primary = personName(p)
		}
		participants = append(participants, fmt.Sprintf("%s (%s)", role, p.GrampsID()))
	}

	var spouses []string
	for _, fam := range backlinks.Objects("family") {
		for _, parent := range []struct{ key, role string }{{"father_handle", "Husband"}, {"mother_handle", "Wife"}} {
			h := fam.Str(parent.key)
			if h == "" {
				continue
			}
			p, err := f.api.Record(ctx, gramps.People, h, nil)
			if err != nil || len(p) == 0 {
				continue
			}
			spouses = append(spouses, personName(p))
			participants = append(participants, fmt.Sprintf("%s (%s)", parent.role, p.GrampsID()))
		}
	}
	if len(spouses) > 0 {
		primary = strings.Join(spouses, " & ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s - %s - [%s]", event.StrOr("type", "Unknown Event"), primary, event.GrampsID(), handle)

	var when []string
	if date != DateUnknown {
		when = append(when, date)
	}
	if place != "" {
		when = append(when, place)
	}
	if len(when) > 0 {
		b.WriteString("\n" + strings.Join(when, " - "))
	}
	if len(participants) > 0 {
		b.WriteString("\nParticipants: " + strings.Join(participants, ", "))
	}
	if ids := f.grampsIDs(ctx, gramps.Citations, event.List("citation_list")); len(ids) > 0 {
		b.WriteString("\nAttached citations: " + strings.Join(ids, ", "))
	}
	if ids := f.grampsIDs(ctx, gramps.Notes, event.List("note_list")); len(ids) > 0 {
		b.WriteString("\nAttached notes: " + strings.Join(ids, ", "))
	}
	b.WriteString("\n\n")
	return b.String()
}
