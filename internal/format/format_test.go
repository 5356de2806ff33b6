package format_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/olgasafonova/gramps-mcp-server/internal/format"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps/grampstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormatter(t *testing.T, srv *grampstest.Server) *format.Formatter {
	t.Helper()
	return format.New(srv.Client(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func obj(m map[string]any) gramps.Object { return gramps.Object(m) }

func TestDate(t *testing.T) {
	tests := []struct {
		name string
		date map[string]any
		want string
	}{
		{"empty", nil, "date unknown"},
		{"preformatted string wins", map[string]any{"string": "abt 1850", "dateval": []any{0.0, 0.0, 1850.0, false}}, "abt 1850"},
		{"full date", map[string]any{"dateval": []any{2.0, 1.0, 1850.0, false}}, "02 January 1850"},
		{"month and year", map[string]any{"dateval": []any{0.0, 3.0, 1901.0, false}}, "March 1901"},
		{"year only", map[string]any{"dateval": []any{0.0, 0.0, 1776.0, false}}, "1776"},
		{"zero year", map[string]any{"dateval": []any{1.0, 1.0, 0.0, false}}, "date unknown"},
		{"short dateval", map[string]any{"dateval": []any{1.0, 1.0}}, "date unknown"},
		{"invalid day falls back to year", map[string]any{"dateval": []any{31.0, 2.0, 1900.0, false}}, "1900"},
		{"before", map[string]any{"dateval": []any{0.0, 0.0, 1800.0, false}, "modifier": 1.0}, "before 1800"},
		{"about estimated", map[string]any{"dateval": []any{0.0, 0.0, 1800.0, false}, "modifier": 3.0, "quality": 1.0}, "about 1800 (estimated)"},
		{"to calculated", map[string]any{"dateval": []any{0.0, 0.0, 1800.0, false}, "modifier": 8.0, "quality": 2.0}, "to 1800 (calculated)"},
		{"text only has no prefix", map[string]any{"dateval": []any{0.0, 0.0, 1800.0, false}, "modifier": 6.0}, "1800"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format.Date(obj(tt.date)))
		})
	}
}

func seedPerson(srv *grampstest.Server) {
	srv.Set("people/h1", map[string]any{
		"handle":          "h1",
		"gramps_id":       "I0001",
		"gender":          0,
		"birth_ref_index": 0,
		"death_ref_index": -1,
		"primary_name": map[string]any{
			"first_name":   "Anna",
			"surname_list": []any{map[string]any{"surname": "Berg"}},
		},
		"event_ref_list": []any{map[string]any{"ref": "e1", "role": "Primary"}},
		"media_list":     []any{map[string]any{"ref": "m1"}},
		"note_list":      []any{"n1", "missing"},
		"urls":           []any{map[string]any{"path": "https://example.org/anna", "desc": "Memorial"}},
		"extended": map[string]any{
			"events": []any{map[string]any{
				"handle": "e1", "type": "Birth", "gramps_id": "E0001", "place": "p1",
				"date": map[string]any{"dateval": []any{2, 1, 1850, false}},
			}},
			"parent_families": []any{map[string]any{"gramps_id": "F0001"}},
			"families":        []any{map[string]any{"gramps_id": "F0002"}},
		},
	})
	srv.Set("places/p1", map[string]any{"handle": "p1", "gramps_id": "P0001", "title": "Oslo, Norway"})
	srv.Set("media/m1", map[string]any{"handle": "m1", "gramps_id": "O0001"})
	srv.Set("notes/n1", map[string]any{"handle": "n1", "gramps_id": "N0001"})
}

func TestPerson(t *testing.T) {
	srv := grampstest.NewServer(t)
	seedPerson(srv)
	f := newFormatter(t, srv)

	got := f.Person(context.Background(), "h1")
	want := "Anna Berg (F) - I0001 - [h1]\n" +
		"Born: 02 January 1850 - Oslo, Norway\n" +
		"Family member of: child (F0001), parent (F0002)\n" +
		"Events: Birth, Primary (E0001)\n" +
		"Attached media: O0001\n" +
		"Attached notes: N0001\n" +
		"https://example.org/anna - Memorial\n\n"
	assert.Equal(t, want, got)

	reqs := srv.RequestsTo("GET", "people/h1")
	require.NotEmpty(t, reqs)
	assert.Equal(t, "all", reqs[0].Query.Get("extend"))
}

func TestPerson_Errors(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("people/empty", map[string]any{})
	f := newFormatter(t, srv)

	assert.Equal(t, "• **Unknown Person** (Handle: empty)\n  No data available\n\n", f.Person(context.Background(), "empty"))
	assert.Equal(t, "• **Error formatting person** (Handle: gone)\n  Record not found.\n\n", f.Person(context.Background(), "gone"))
}

func TestFamily(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("families/f1", map[string]any{
		"handle": "f1", "gramps_id": "F0001",
		"father_handle": "h1", "mother_handle": "h2",
		"child_ref_list": []any{map[string]any{"ref": "h3"}},
		"event_ref_list": []any{map[string]any{"ref": "e1", "role": "Family"}},
		"extended": map[string]any{"events": []any{map[string]any{
			"type": "Marriage", "gramps_id": "E0010", "place": "p1",
			"date": map[string]any{"dateval": []any{0, 6, 1875, false}},
		}}},
	})
	srv.Set("people/h1", map[string]any{"gramps_id": "I0001", "gender": 1, "primary_name": map[string]any{"first_name": "Per", "surname_list": []any{map[string]any{"surname": "Berg"}}}})
	srv.Set("people/h2", map[string]any{"gramps_id": "I0002", "gender": 0, "primary_name": map[string]any{"first_name": "Anna", "surname_list": []any{map[string]any{"surname": "Lund"}}}})
	srv.Set("people/h3", map[string]any{"gramps_id": "I0003", "primary_name": map[string]any{"first_name": "Ole"}})
	srv.Set("places/p1", map[string]any{"title": "Bergen"})
	f := newFormatter(t, srv)

	want := "Father: Per Berg (M) - I0001 | Mother: Anna Lund (F) - I0002 - F0001 - [f1]\n" +
		"Married: June 1875 - Bergen\n" +
		"Children: Ole (U) - I0003\n" +
		"Events: Marriage, Family (E0010)\n\n"
	assert.Equal(t, want, f.Family(context.Background(), "f1"))
	assert.Equal(t, "• **Family**\n  No handle provided\n\n", f.Family(context.Background(), ""))
}

func TestEvent_FamilyEventNamesSpouses(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("events/e1", map[string]any{
		"handle": "e1", "gramps_id": "E0010", "type": "Marriage",
		"date":          map[string]any{"dateval": []any{12, 6, 1875, false}},
		"citation_list": []any{"c1"},
		"extended": map[string]any{"backlinks": map[string]any{
			"family": []any{map[string]any{"father_handle": "h1", "mother_handle": "h2"}},
		}},
	})
	srv.Set("people/h1", map[string]any{"gramps_id": "I0001", "primary_name": map[string]any{"first_name": "Per"}})
	srv.Set("people/h2", map[string]any{"gramps_id": "I0002", "primary_name": map[string]any{"first_name": "Anna"}})
	srv.Set("citations/c1", map[string]any{"gramps_id": "C0001"})
	f := newFormatter(t, srv)

	want := "Marriage: Per & Anna - E0010 - [e1]\n" +
		"12 June 1875\n" +
		"Participants: Husband (I0001), Wife (I0002)\n" +
		"Attached citations: C0001\n\n"
	assert.Equal(t, want, f.Event(context.Background(), "e1"))

	reqs := srv.RequestsTo("GET", "events/e1")
	require.NotEmpty(t, reqs)
	assert.Equal(t, "backlinks", reqs[0].Query.Get("extend"))
	assert.Equal(t, "true", reqs[0].Query.Get("backlinks"))
}

func TestEvent_PersonEventUsesPrimaryRole(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("events/e1", map[string]any{
		"gramps_id": "E0001", "type": "Birth",
		"extended": map[string]any{"backlinks": map[string]any{
			"person": []any{
				map[string]any{"gramps_id": "I0009", "primary_name": map[string]any{"first_name": "Kari"},
					"event_ref_list": []any{map[string]any{"ref": "e1", "role": "Witness"}}},
				map[string]any{"gramps_id": "I0001", "primary_name": map[string]any{"first_name": "Anna"},
					"event_ref_list": []any{map[string]any{"ref": "e1", "role": "Primary"}}},
			},
		}},
	})
	f := newFormatter(t, srv)

	want := "Birth: Anna - E0001 - [e1]\nParticipants: Witness (I0009), Primary (I0001)\n\n"
	assert.Equal(t, want, f.Event(context.Background(), "e1"))
}

func TestPlace_HierarchyWalk(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("places/p1", map[string]any{
		"gramps_id": "P0001", "place_type": "Farm",
		"name":          map[string]any{"value": "Nordgard"},
		"placeref_list": []any{map[string]any{"ref": "p2"}},
		"urls":          []any{map[string]any{"path": "https://maps.example/p1"}},
	})
	srv.Set("places/p2", map[string]any{"name": map[string]any{"value": "Vang"}, "placeref_list": []any{map[string]any{"ref": "p3"}}})
	srv.Set("places/p3", map[string]any{"title": "Hedmark, Norway", "placeref_list": []any{map[string]any{"ref": "p4"}}})
	f := newFormatter(t, srv)

	assert.Equal(t, "Nordgard, Vang, Hedmark, Norway", f.PlaceInline(context.Background(), "p1"))
	assert.Equal(t, "Farm: Nordgard, Vang, Hedmark, Norway - P0001 - [p1]\nhttps://maps.example/p1\n\n", f.Place(context.Background(), "p1"))
	assert.Empty(t, srv.RequestsTo("GET", "places/p4"))
	assert.Equal(t, "", f.PlaceInline(context.Background(), ""))
	assert.Equal(t, "", f.PlaceInline(context.Background(), "nowhere"))
}

func TestSourceCitationRepository(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("sources/s1", map[string]any{
		"gramps_id": "S0001", "title": " Parish register ", "author": "Vang parish", "pubinfo": "",
		"reporef_list": []any{map[string]any{"ref": "r1"}},
		"note_list":    []any{"n1"},
	})
	srv.Set("repositories/r1", map[string]any{
		"gramps_id": "R0001", "name": "National Archives", "type": "Archive",
		"urls": []any{map[string]any{"path": "https://arkivverket.no", "desc": "Website"}},
	})
	srv.Set("notes/n1", map[string]any{"gramps_id": "N0001"})
	srv.Set("citations/c1", map[string]any{
		"gramps_id": "C0001", "page": "p. 14", "source_handle": "s1",
		"date": map[string]any{"dateval": []any{0, 0, 1850, false}},
		"extended": map[string]any{"backlinks": map[string]any{
			"event":  []any{map[string]any{"gramps_id": "E0001"}},
			"person": []any{map[string]any{"gramps_id": "I0001"}},
			"source": []any{map[string]any{"gramps_id": "S0001"}},
		}},
	})
	f := newFormatter(t, srv)
	ctx := context.Background()

	assert.Equal(t, "Parish register - S0001 - [s1]\nVang parish\nNational Archives - R0001\nAttached notes: N0001\n\n", f.Source(ctx, "s1"))
	assert.Equal(t, "Parish register, p. 14 - C0001 - [c1]\n1850\nAttached to: I0001, E0001\n\n", f.Citation(ctx, "c1"))
	assert.Equal(t, "Archive: National Archives - R0001 - [r1]\nhttps://arkivverket.no - Website\n\n", f.Repository(ctx, "r1"))
	assert.Equal(t, "", f.Repository(ctx, "nope"))
}

func TestNoteAndMedia(t *testing.T) {
	srv := grampstest.NewServer(t)
	long := strings.Repeat("å", 600)
	srv.Set("notes/n1", map[string]any{"gramps_id": "N0001", "type": "Research", "text": map[string]any{"_class": "StyledText", "string": "  Check the 1865 census.  "}})
	srv.Set("notes/n2", map[string]any{"gramps_id": "N0002", "type": "General", "text": map[string]any{"string": long}})
	srv.Set("notes/n3", map[string]any{"gramps_id": "N0003", "type": "General", "text": map[string]any{"string": ""}})
	srv.Set("media/m1", map[string]any{"gramps_id": "O0001", "mime": "image/jpeg", "desc": "Portrait", "date": map[string]any{"dateval": []any{0, 0, 1890, false}}})
	srv.Set("media/m2", map[string]any{})
	srv.Set("media/m3", map[string]any{"gramps_id": "O0003"})
	f := newFormatter(t, srv)
	ctx := context.Background()

	assert.Equal(t, "Research Note - N0001 - [n1]\nCheck the 1865 census.\n\n", f.Note(ctx, "n1"))
	n2 := f.Note(ctx, "n2")
	assert.True(t, strings.HasSuffix(n2, "...\n\n"))
	assert.Equal(t, strings.Repeat("å", 497)+"...", strings.Split(n2, "\n")[1])
	assert.Equal(t, "", f.Note(ctx, "n3"))

	assert.Equal(t, "image/jpeg - O0001 - [m1]\nPortrait - 1890\n\n", f.Media(ctx, "m1"))
	assert.Equal(t, "**Media m2**\n  Media not found\n\n", f.Media(ctx, "m2"))
	assert.Equal(t, "unknown type - O0003 - [m3]\nNo description\n\n", f.Media(ctx, "m3"))
}

func TestSearchResult(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("media/m1", map[string]any{"gramps_id": "O0001", "mime": "image/png", "desc": "Farm"})
	f := newFormatter(t, srv)
	ctx := context.Background()

	assert.Equal(t, "image/png - O0001 - [m1]\nFarm\n\n",
		f.SearchResult(ctx, obj(map[string]any{"object_type": "media", "object": map[string]any{"handle": "m1"}})))
	assert.Equal(t, "• **Person record** (No handle available)\n\n",
		f.SearchResult(ctx, obj(map[string]any{"object_type": "person", "object": map[string]any{}})))
	assert.Equal(t, "• **Brick wall** (Tag - ID: N/A)\n\n",
		f.SearchResult(ctx, obj(map[string]any{"object_type": "tag", "object": map[string]any{"handle": "t1", "title": "Brick wall"}})))
}

func TestPersonDetail(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("people/h1", map[string]any{
		"handle": "h1", "gramps_id": "I0001", "gender": 1,
		"birth_ref_index":    0,
		"primary_name":       map[string]any{"first_name": "Ole", "surname_list": []any{map[string]any{"surname": "Berg"}}},
		"parent_family_list": []any{"f1"},
		"family_list":        []any{"f2"},
		"note_list":          []any{"n1"},
		"extended": map[string]any{"events": []any{map[string]any{
			"type": "Birth", "date": map[string]any{"dateval": []any{0, 0, 1880, false}},
		}}},
	})
	srv.Set("people/h1/timeline", []any{
		map[string]any{"handle": "e1", "gramps_id": "E0001", "type": "Birth", "role": "Primary",
			"place":  map[string]any{"display_name": "Vang"},
			"person": map[string]any{"relationship": "self"}},
		map[string]any{"gramps_id": "E0009", "type": "Death", "date": "1920",
			"person": map[string]any{"relationship": "father", "name_given": "Per", "name_surname": "Berg", "gramps_id": "I0000"}},
	})
	srv.Set("events/e1", map[string]any{"date": map[string]any{"dateval": []any{0, 0, 1880, false}}, "citation_list": []any{"c1"}})
	srv.Set("citations/c1", map[string]any{"gramps_id": "C0001"})
	srv.Set("families/f1", map[string]any{"extended": map[string]any{
		"father":   map[string]any{"handle": "h0", "gramps_id": "I0000", "primary_name": map[string]any{"first_name": "Per"}},
		"children": []any{map[string]any{"gramps_id": "I0001"}, map[string]any{"handle": "h5", "gramps_id": "I0005", "primary_name": map[string]any{"first_name": "Liv"}}},
	}})
	srv.Set("people/h0", map[string]any{"living": false, "death_ref_index": 0, "extended": map[string]any{"events": []any{
		map[string]any{"date": map[string]any{"dateval": []any{0, 0, 1920, false}}},
	}}})
	srv.Set("people/h5", map[string]any{"living": true})
	srv.Set("families/f2", map[string]any{"extended": map[string]any{
		"father": map[string]any{"gramps_id": "I0001"},
		"mother": map[string]any{"gramps_id": "I0002", "primary_name": map[string]any{"first_name": "Eli"}},
	}})
	srv.Set("notes/n1", map[string]any{"gramps_id": "N0001", "type": "Research", "text": map[string]any{"string": strings.Repeat("x", 60)}})
	f := newFormatter(t, srv)

	got, err := f.PersonDetail(context.Background(), "h1")
	require.NoError(t, err)

	want := "=== PERSON DETAILS ===\n" +
		"Ole Berg (M) - I0001 - [h1]\n" +
		"Born: 1880 - \n" +
		"\nRELATIONS:\n" +
		"Parents:\n" +
		"- Per - I0000 - 1920\n" +
		"Siblings:\n" +
		"- Liv - I0005 - Living\n" +
		"Spouse:\n" +
		"- Eli - I0002 - \n" +
		"\nTIMELINE:\n" +
		"- 1880 (Vang) - E0001 : Birth, Ole Berg I0001, Primary\n" +
		"  Citations: C0001\n" +
		"- date unknown () - E0009 : Death, Per Berg I0000, Primary\n" +
		"\nAttached media:\n" +
		"\nAttached notes:\n" +
		"- Research: " + strings.Repeat("x", 50) + "... (N0001)\n"
	assert.Equal(t, want, got)

	tl := srv.RequestsTo("GET", "people/h1/timeline")
	require.Len(t, tl, 1)
	assert.Equal(t, "true", tl[0].Query.Get("ratings"))
}

func TestPersonDetail_MissingPerson(t *testing.T) {
	srv := grampstest.NewServer(t)
	f := newFormatter(t, srv)

	_, err := f.PersonDetail(context.Background(), "nobody")
	require.Error(t, err)
	assert.Equal(t, "Record not found.", err.Error())
}

func TestFamilyDetail(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("families/f1", map[string]any{
		"gramps_id":      "F0001",
		"event_ref_list": []any{map[string]any{"ref": "e0"}, map[string]any{"ref": "e1"}},
		"media_list":     []any{map[string]any{"ref": "m1"}, map[string]any{"ref": "gone"}},
		"extended": map[string]any{
			"father":   map[string]any{"handle": "h1", "gramps_id": "I0001", "gender": 1, "primary_name": map[string]any{"first_name": "Per"}},
			"children": []any{map[string]any{"gramps_id": "I0003", "primary_name": map[string]any{"first_name": "Ole"}}},
		},
	})
	srv.Set("families/f1/timeline", []any{})
	srv.Set("events/e0", map[string]any{"type": "Engagement"})
	srv.Set("events/e1", map[string]any{"type": "Marriage", "place": "p1", "date": map[string]any{"dateval": []any{1, 5, 1875, false}}})
	srv.Set("places/p1", map[string]any{"title": "Vang church"})
	srv.Set("people/h1", map[string]any{"birth_ref_index": 0, "extended": map[string]any{"events": []any{
		map[string]any{"place": "p1", "date": map[string]any{"dateval": []any{0, 0, 1850, false}}},
	}}})
	srv.Set("media/m1", map[string]any{"gramps_id": "O0001", "desc": "Wedding photo"})
	f := newFormatter(t, srv)

	got, err := f.FamilyDetail(context.Background(), "f1")
	require.NoError(t, err)

	want := "=== FAMILY DETAILS ===\n" +
		"Family F0001 - [f1]\n" +
		"\nPARENTS:\n" +
		"Father: Per (M) - I0001 - 1850 - Vang church\n" +
		"\nCHILDREN:\n" +
		"- Ole (U) - I0003 - \n" +
		"\nMarried:\n" +
		"01 May 1875 - Vang church\n" +
		"\nTIMELINE:\n" +
		"\nAttached media:\n" +
		"- Wedding photo (O0001)\n" +
		"- Media (gone)\n" +
		"\nAttached notes:\n"
	assert.Equal(t, want, got)
}

func TestRecentChanges(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("people/h1", map[string]any{"gramps_id": "I0001"})
	f := newFormatter(t, srv)

	assert.Equal(t, "No recent changes found.", f.RecentChanges(context.Background(), nil))

	got := f.RecentChanges(context.Background(), []gramps.Object{
		obj(map[string]any{
			"description": "Add person",
			"timestamp":   "yesterday",
			"connection":  map[string]any{"user": map[string]any{"name": "owner"}},
			"changes": []any{
				map[string]any{"obj_class": "Person", "obj_handle": "h1"},
				map[string]any{"obj_class": "Family", "obj_handle": "f9"},
				map[string]any{"obj_class": "Tag", "obj_handle": "t1"},
				map[string]any{"obj_class": "Note", "obj_handle": "n1"},
			},
		}),
		obj(map[string]any{}),
	})
	want := "Found 2 recent changes:\n\n" +
		"• **Add person**\n  Time: yesterday\n  User: owner\n" +
		"  Objects changed:\n    - Person: I0001\n    - Family: f9\n    - Tag: t1\n    - ... and 1 more\n\n" +
		"• **Transaction**\n  Time: Unknown time\n  User: Unknown\n  Changes: 0 objects modified\n\n"
	assert.Equal(t, want, got)
}

func TestTreeInfo(t *testing.T) {
	got := format.TreeInfo(obj(map[string]any{
		"id": "tree1", "name": "Berg family", "description": "Vang parish",
		"usage_people": 12345.0, "usage_media": 1572864.0,
	}))
	want := "# Family Tree: Berg family\n\n**Tree ID:** `tree1`\n**Description:** Vang parish\n\n" +
		"## Statistics\n\n• **People:** 12,345\n• **Media Storage:** 1.50 MB\n\n"
	assert.Equal(t, want, got)

	assert.Contains(t, format.TreeInfo(obj(map[string]any{"usage_people": nil})), "Statistics not available")
	assert.Contains(t, format.TreeInfo(obj(map[string]any{})), "# Family Tree: Unnamed Tree")
}

func TestReport(t *testing.T) {
	html := `<html><head><style>h1{color:red}</style><script>alert(1)</script></head>
<body><h1>Descendants of Ole Berg</h1><p onclick="x()">1. <b>Ole Berg</b></p></body></html>`

	got, err := format.Report(html)
	require.NoError(t, err)
	assert.Contains(t, got, "# Descendants of Ole Berg")
	assert.Contains(t, got, "**Ole Berg**")
	assert.NotContains(t, got, "alert")
	assert.NotContains(t, got, "color:red")

	empty, err := format.Report("  \n ")
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}
