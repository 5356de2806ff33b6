package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
)

// Family renders a family summary: parents, marriage and divorce, children,
// events, attachments and URLs.
func (f *Formatter) Family(ctx context.Context, handle string) string {
	if handle == "" {
		return "• **Family**\n  No handle provided\n\n"
	}
	family, err := f.api.Record(ctx, gramps.Families, handle, extendAll)
	if err != nil {
		f.logger.Debug("Failed to format family", "handle", handle, "error", err)
		return fmt.Sprintf("• **Family %s**\n  Error formatting family: %s\n\n", handle, err)
	}
	if len(family) == 0 {
		return fmt.Sprintf("• **Family %s**\n  Family not found\n\n", handle)
	}

	var b strings.Builder
	var members []string
	for _, parent := range []struct{ label, key string }{{"Father", "father_handle"}, {"Mother", "mother_handle"}} {
		if p := f.member(ctx, family.Str(parent.key)); p != "" {
			members = append(members, parent.label+": "+p)
		}
	}
	if len(members) > 0 {
		fmt.Fprintf(&b, "%s - %s - [%s]\n", strings.Join(members, " | "), family.GrampsID(), handle)
	} else {
		fmt.Fprintf(&b, "%s - [%s]\n", family.GrampsID(), handle)
	}

	events := family.Extended().Objects("events")
	refs := family.List("event_ref_list")
	for i := range refs {
		ev := eventAt(events, i)
		if ev == nil {
			break
		}
		label := ""
		switch strings.ToLower(ev.Str("type")) {
		case "marriage":
			label = "Married"
		case "divorce":
			label = "Divorced"
		default:
			continue
		}
		line := label + ": " + Date(ev.Obj("date"))
		if place := f.PlaceInline(ctx, ev.Str("place")); place != "" {
			line += " - " + place
		}
		b.WriteString(line + "\n")
	}

	var children []string
	for _, ref := range family.Objects("child_ref_list") {
		if c := f.member(ctx, ref.Str("ref")); c != "" {
			children = append(children, c)
		}
	}
	if len(children) > 0 {
		b.WriteString("Children: " + strings.Join(children, ", ") + "\n")
	}

	if summaries := eventSummaries(refs, events); len(summaries) > 0 {
		b.WriteString("Events: " + strings.Join(summaries, ", ") + "\n")
	}
	lines := f.attachmentLines(ctx, family.List("media_list"), family.List("note_list"))
	for _, line := range append(lines, urlLines(family.Objects("urls"))...) {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// member renders "Name (G) - gid" for a person handle, or "" when the person
// cannot be loaded.
func (f *Formatter) member(ctx context.Context, handle string) string {
	if handle == "" {
		return ""
	}
	p, err := f.api.Record(ctx, gramps.People, handle, nil)
	if err != nil {
		f.logger.Debug("Failed to fetch family member", "handle", handle, "error", err)
		return ""
	}
	if len(p) == 0 {
		return ""
	}
	return fmt.Sprintf("%s (%s) - %s", personName(p), genderLetter(p), p.GrampsID())
}
