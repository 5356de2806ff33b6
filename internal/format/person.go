package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
)

// Person renders a person summary: header, birth and death, family
// membership, events, attachments and URLs.
func (f *Formatter) Person(ctx context.Context, handle string) string {
	person, err := f.api.Record(ctx, gramps.People, handle, extendAll)
	if err != nil {
		f.logger.Debug("Failed to format person", "handle", handle, "error", err)
		return fmt.Sprintf("• **Error formatting person** (Handle: %s)\n  %s\n\n", handle, err)
	}
	if len(person) == 0 {
		return fmt.Sprintf("• **Unknown Person** (Handle: %s)\n  No data available\n\n", handle)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) - %s - [%s]\n", personName(person), genderLetter(person), person.GrampsID(), handle)

	extended := person.Extended()
	events := extended.Objects("events")
	refs := person.List("event_ref_list")

	for _, life := range []struct{ label, key string }{{"Born", "birth_ref_index"}, {"Died", "death_ref_index"}} {
		idx := person.IntOr(life.key, -1)
		if idx >= len(refs) {
			continue
		}
		if ev := eventAt(events, idx); ev != nil {
			fmt.Fprintf(&b, "%s: %s - %s\n", life.label, Date(ev.Obj("date")), f.PlaceInline(ctx, ev.Str("place")))
		}
	}

	var membership []string
	for _, fam := range extended.Objects("parent_families") {
		membership = append(membership, "child ("+fam.GrampsID()+")")
	}
	for _, fam := range extended.Objects("families") {
		membership = append(membership, "parent ("+fam.GrampsID()+")")
	}
	if len(membership) > 0 {
		b.WriteString("Family member of: " + strings.Join(membership, ", ") + "\n")
	}

	if summaries := eventSummaries(refs, events); len(summaries) > 0 {
		b.WriteString("Events: " + strings.Join(summaries, ", ") + "\n")
	}
	lines := f.attachmentLines(ctx, person.List("media_list"), person.List("note_list"))
	for _, line := range append(lines, urlLines(person.Objects("urls"))...) {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// attachmentLines resolves attached media and notes to their Gramps IDs.
func (f *Formatter) attachmentLines(ctx context.Context, media, notes []any) []string {
	var lines []string
	if ids := f.grampsIDs(ctx, gramps.Media, media); len(ids) > 0 {
		lines = append(lines, "Attached media: "+strings.Join(ids, ", "))
	}
	if ids := f.grampsIDs(ctx, gramps.Notes, notes); len(ids) > 0 {
		lines = append(lines, "Attached notes: "+strings.Join(ids, ", "))
	}
	return lines
}
