package gramps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing Object
		changes  Object
		key      string
		want     any
	}{
		{
			name:     "scalar replaced",
			existing: Object{"description": "old"},
			changes:  Object{"description": "new"},
			key:      "description",
			want:     "new",
		},
		{
			name:     "ref objects deduplicated",
			existing: Object{"event_ref_list": []any{map[string]any{"ref": "e1", "role": "Primary"}}},
			changes: Object{"event_ref_list": []any{
				map[string]any{"ref": "e1", "role": "Witness"},
				map[string]any{"ref": "e2", "role": "Primary"},
			}},
			key: "event_ref_list",
			want: []any{
				map[string]any{"ref": "e1", "role": "Primary"},
				map[string]any{"ref": "e2", "role": "Primary"},
			},
		},
		{
			name:     "string handles deduplicated",
			existing: Object{"note_list": []any{"n1", "n2"}},
			changes:  Object{"note_list": []any{"n2", "n3"}},
			key:      "note_list",
			want:     []any{"n1", "n2", "n3"},
		},
		{
			name:     "mixed types concatenated",
			existing: Object{"attribute_list": []any{map[string]any{"type": "Nickname"}}},
			changes:  Object{"attribute_list": []any{map[string]any{"type": "Nickname"}}},
			key:      "attribute_list",
			want:     []any{map[string]any{"type": "Nickname"}, map[string]any{"type": "Nickname"}},
		},
		{
			name:     "empty existing list",
			existing: Object{"media_list": []any{}},
			changes:  Object{"media_list": []any{map[string]any{"ref": "m1"}}},
			key:      "media_list",
			want:     []any{map[string]any{"ref": "m1"}},
		},
		{
			name:     "list key missing from existing is set",
			existing: Object{},
			changes:  Object{"tag_list": []any{"t1"}},
			key:      "tag_list",
			want:     []any{"t1"},
		},
		{
			name:     "non-list value for list key replaces",
			existing: Object{"citation_list": []any{"c1"}},
			changes:  Object{"citation_list": "c2"},
			key:      "citation_list",
			want:     "c2",
		},
		{
			name:     "non _list key replaced even if list",
			existing: Object{"urls": []any{map[string]any{"path": "a"}}},
			changes:  Object{"urls": []any{map[string]any{"path": "b"}}},
			key:      "urls",
			want:     []any{map[string]any{"path": "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.existing, tt.changes)
			assert.Equal(t, tt.want, got[tt.key])
		})
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	existing := Object{"note_list": []any{"n1"}, "gramps_id": "E0001"}
	changes := Object{"note_list": []any{"n2"}}

	merged := Merge(existing, changes)
	assert.Equal(t, []any{"n1", "n2"}, merged["note_list"])
	assert.Equal(t, "E0001", merged["gramps_id"])
	assert.Equal(t, []any{"n1"}, existing["note_list"])
}

func TestObjectAccessors(t *testing.T) {
	o := Object{
		"gramps_id": "I0001",
		"gender":    1.0,
		"private":   true,
		"primary_name": map[string]any{
			"first_name": "Anna",
			"surname_list": []any{
				map[string]any{"surname": "Berg"},
			},
		},
		"note_list": []any{"n1", 7.0, "n2"},
		"nothing":   nil,
	}

	assert.Equal(t, "I0001", o.GrampsID())
	assert.Equal(t, 1, o.Int("gender"))
	assert.Equal(t, 2, o.IntOr("missing", 2))
	assert.Equal(t, 2, o.IntOr("nothing", 2))
	assert.True(t, o.Bool("private"))
	assert.Equal(t, "Anna", o.Obj("primary_name").Str("first_name"))
	assert.Equal(t, "Berg", o.Obj("primary_name").Objects("surname_list")[0].Str("surname"))
	assert.Equal(t, []string{"n1", "n2"}, o.Strings("note_list"))
	assert.Equal(t, "Anna", o.Path("primary_name", "first_name"))
	assert.Nil(t, o.Path("primary_name", "missing", "deeper"))
	assert.Equal(t, "", o.Str("nothing"))
	assert.Equal(t, "fallback", o.StrOr("nothing", "fallback"))
	assert.True(t, o.Has("nothing"))
	assert.Nil(t, o.Extended())
}
