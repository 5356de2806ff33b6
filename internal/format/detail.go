package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
)

// notePreviewLength is how much note text the detail views show.
const notePreviewLength = 50

// PersonDetail renders the full view of a person: vital events, parents,
// siblings, spouses and children, the timeline with citations, and
// attachments. It fails only when the person or their timeline cannot be
// loaded.
func (f *Formatter) PersonDetail(ctx context.Context, handle string) (string, error) {
	person, err := f.api.Record(ctx, gramps.People, handle, extendAll)
	if err != nil {
		return "", err
	}
	timeline, err := f.api.Call(ctx, gramps.PersonTimeline, gramps.Params{"ratings": true}, gramps.PathParams{"handle": handle})
	if err != nil {
		return "", err
	}

	gid := person.GrampsID()
	var b strings.Builder
	b.WriteString("=== PERSON DETAILS ===\n")
	fmt.Fprintf(&b, "%s (%s) - %s - [%s]\n", detailName(person), genderLetter(person), gid, handle)

	events := person.Extended().Objects("events")
	if ev := eventAt(events, person.IntOr("birth_ref_index", -1)); ev != nil {
		fmt.Fprintf(&b, "Born: %s - %s\n", Date(ev.Obj("date")), f.PlaceInline(ctx, ev.Str("place")))
	}
	if ev := eventAt(events, person.IntOr("death_ref_index", -1)); ev != nil {
		fmt.Fprintf(&b, "Died: %s - %s\n", Date(ev.Obj("date")), f.PlaceInline(ctx, ev.Str("place")))
	}

	b.WriteString("\nRELATIONS:\n")
	b.WriteString("Parents:\n")
	for _, fh := range person.Strings("parent_family_list") {
		family, err := f.api.Record(ctx, gramps.Families, fh, extendAll)
		if err != nil {
			continue
		}
		ext := family.Extended()
		for _, parent := range []gramps.Object{ext.Obj("father"), ext.Obj("mother")} {
			if len(parent) > 0 {
				b.WriteString(f.relativeLine(ctx, parent))
			}
		}
		var siblings []gramps.Object
		for _, child := range ext.Objects("children") {
			if child.GrampsID() != gid {
				siblings = append(siblings, child)
			}
		}
		if len(siblings) > 0 {
			b.WriteString("Siblings:\n")
			for _, s := range siblings {
				b.WriteString(f.relativeLine(ctx, s))
			}
		}
	}

	for _, fh := range person.Strings("family_list") {
		family, err := f.api.Record(ctx, gramps.Families, fh, extendAll)
		if err != nil {
			continue
		}
		ext := family.Extended()
		father, mother := ext.Obj("father"), ext.Obj("mother")
		var spouse gramps.Object
		switch {
		case len(father) > 0 && father.GrampsID() != gid:
			spouse = father
		case len(mother) > 0 && mother.GrampsID() != gid:
			spouse = mother
		}
		if spouse == nil {
			continue
		}
		b.WriteString("Spouse:\n" + f.relativeLine(ctx, spouse))
		if children := ext.Objects("children"); len(children) > 0 {
			b.WriteString("Children:\n")
			for _, c := range children {
				b.WriteString(f.relativeLine(ctx, c))
			}
		}
	}

	b.WriteString("\nTIMELINE:\n")
	f.writeTimeline(ctx, &b, timeline, person)
	f.writeDetailAttachments(ctx, &b, person)
	return b.String(), nil
}

// FamilyDetail renders the full view of a family: parents and children with
// their vital dates, the marriage, the timeline with citations, and
// attachments.
func (f *Formatter) FamilyDetail(ctx context.Context, handle string) (string, error) {
	family, err := f.api.Record(ctx, gramps.Families, handle, extendAll)
	if err != nil {
		return "", err
	}
	timeline, err := f.api.Call(ctx, gramps.FamilyTimeline, nil, gramps.PathParams{"handle": handle})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("=== FAMILY DETAILS ===\n")
	fmt.Fprintf(&b, "Family %s - [%s]\n", family.GrampsID(), handle)

	b.WriteString("\nPARENTS:\n")
	ext := family.Extended()
	for _, parent := range []struct {
		label string
		rec   gramps.Object
	}{{"Father", ext.Obj("father")}, {"Mother", ext.Obj("mother")}} {
		if len(parent.rec) == 0 {
			continue
		}
		birth, death := f.vitals(ctx, parent.rec, true)
		fmt.Fprintf(&b, "%s: %s (%s) - %s - %s\n", parent.label, detailName(parent.rec), genderLetter(parent.rec),
			parent.rec.GrampsID(), joinNonEmpty(birth, death))
	}

	if children := ext.Objects("children"); len(children) > 0 {
		b.WriteString("\nCHILDREN:\n")
		for _, c := range children {
			birth, death := f.vitals(ctx, c, true)
			fmt.Fprintf(&b, "- %s (%s) - %s - %s\n", detailName(c), genderLetter(c), c.GrampsID(), joinNonEmpty(birth, death))
		}
	}

	b.WriteString("\nMarried:\n")
	for _, ref := range family.Objects("event_ref_list") {
		eh := ref.Str("ref")
		if eh == "" {
			continue
		}
		ev, err := f.api.Record(ctx, gramps.Events, eh, nil)
		if err != nil {
			continue
		}
		if t := strings.ToLower(ev.Str("type")); t == "marriage" || t == "married" {
			fmt.Fprintf(&b, "%s - %s\n", Date(ev.Obj("date")), f.PlaceInline(ctx, ev.Str("place")))
			break
		}
	}

	b.WriteString("\nTIMELINE:\n")
	f.writeTimeline(ctx, &b, timeline, nil)
	f.writeDetailAttachments(ctx, &b, family)
	return b.String(), nil
}

// relativeLine renders "- name - gid - birth, death".
func (f *Formatter) relativeLine(ctx context.Context, p gramps.Object) string {
	birth, death := f.vitals(ctx, p, false)
	return fmt.Sprintf("- %s - %s - %s\n", detailName(p), p.GrampsID(), joinNonEmpty(birth, death))
}

// vitals loads a person and returns their birth and death dates, optionally
// with places. Living people show "Living" as the death.
func (f *Formatter) vitals(ctx context.Context, p gramps.Object, withPlaces bool) (string, string) {
	h := p.Handle()
	if h == "" {
		return "", ""
	}
	full, err := f.api.Record(ctx, gramps.People, h, extendAll)
	if err != nil {
		return "", ""
	}
	events := full.Extended().Objects("events")
	render := func(key string) string {
		ev := eventAt(events, full.IntOr(key, -1))
		if ev == nil {
			return ""
		}
		date := Date(ev.Obj("date"))
		if !withPlaces {
			return date
		}
		if place := f.PlaceInline(ctx, ev.Str("place")); place != "" {
			return date + " - " + place
		}
		return date
	}

	birth, death := render("birth_ref_index"), render("death_ref_index")
	if full.Bool("living") {
		death = "Living"
	}
	return birth, death
}

// writeTimeline renders timeline entries as
// "- date (place) - eid : type, name gid, role" with a citation line when the
// event is cited. self, when set, is the person the timeline belongs to.
func (f *Formatter) writeTimeline(ctx context.Context, b *strings.Builder, timeline any, self gramps.Object) {
	for _, entry := range gramps.AsObjects(timeline) {
		date := DateUnknown
		var event gramps.Object
		if eh := entry.Str("handle"); eh != "" {
			ev, err := f.api.Record(ctx, gramps.Events, eh, nil)
			if err != nil {
				date = entry.StrOr("date", DateUnknown)
			} else {
				event = ev
				date = Date(ev.Obj("date"))
			}
		}

		placePart := "()"
		if name := entry.Obj("place").Str("display_name"); name != "" {
			placePart = "(" + name + ")"
		}

		name, id := "", ""
		if who := entry.Obj("person"); len(who) > 0 {
			if self != nil && who.Str("relationship") == "self" {
				name, id = detailName(self), self.GrampsID()
			} else {
				name = strings.TrimSpace(who.Str("name_given") + " " + who.Str("name_surname"))
				id = who.GrampsID()
			}
		}
		tail := ", " + entry.StrOr("role", "Primary")
		if name != "" {
			tail = ", " + name + " " + id + tail
		}
		fmt.Fprintf(b, "- %s %s - %s : %s%s\n", date, placePart, entry.GrampsID(), entry.StrOr("type", "Unknown"), tail)

		if event != nil {
			if ids, ok := f.citationIDs(ctx, event.Strings("citation_list")); ok && len(ids) > 0 {
				b.WriteString("  Citations: " + strings.Join(ids, ", ") + "\n")
			}
		}
	}
}

// citationIDs resolves every citation handle; any failure drops the whole
// line.
func (f *Formatter) citationIDs(ctx context.Context, handles []string) ([]string, bool) {
	var ids []string
	for _, h := range handles {
		c, err := f.api.Record(ctx, gramps.Citations, h, nil)
		if err != nil {
			return nil, false
		}
		if id := c.GrampsID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, true
}

func (f *Formatter) writeDetailAttachments(ctx context.Context, b *strings.Builder, rec gramps.Object) {
	b.WriteString("\nAttached media:\n")
	for _, ref := range rec.Objects("media_list") {
		mh := ref.Str("ref")
		if mh == "" {
			continue
		}
		m, err := f.api.Record(ctx, gramps.Media, mh, nil)
		if err != nil {
			fmt.Fprintf(b, "- Media (%s)\n", mh)
			continue
		}
		fmt.Fprintf(b, "- %s (%s)\n", m.Str("desc"), m.GrampsID())
	}

	b.WriteString("\nAttached notes:\n")
	for _, nh := range rec.Strings("note_list") {
		n, err := f.api.Record(ctx, gramps.Notes, nh, nil)
		if err != nil {
			fmt.Fprintf(b, "- Note (%s)\n", nh)
			continue
		}
		fmt.Fprintf(b, "- %s: %s (%s)\n", n.Str("type"), notePreview(noteText(n)), n.GrampsID())
	}
}

// notePreview keeps the first notePreviewLength characters.
func notePreview(text string) string {
	r := []rune(text)
	if len(r) <= notePreviewLength {
		return text
	}
	return string(r[:notePreviewLength]) + "..."
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
