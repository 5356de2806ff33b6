package genealogy_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/olgasafonova/gramps-mcp-server/internal/genealogy"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps/grampstest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMedia_Upload(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/farm.jpg", []byte("jpeg bytes"), 0o644))

	srv := grampstest.NewServer(t)
	var uploaded []byte
	var uploadType string
	srv.Handle(http.MethodPost, "media/", func(w http.ResponseWriter, r *http.Request) {
		uploaded, _ = io.ReadAll(r.Body)
		uploadType = r.Header.Get("Content-Type")
		grampstest.WriteJSON(w, http.StatusCreated, []any{map[string]any{
			"new": map[string]any{"_class": "Media", "handle": "m1", "gramps_id": "O0001", "path": "abc.jpg", "mime": "image/jpeg"},
		}})
	})
	srv.Set("media/m1", map[string]any{"handle": "m1", "gramps_id": "O0001", "mime": "image/jpeg", "desc": "The farm"})
	srv.Handle(http.MethodPut, "media/m1", created(map[string]any{"handle": "m1", "gramps_id": "O0001"}))
	svc := newService(t, srv, genealogy.WithFs(fs))

	got, err := svc.CreateMedia(context.Background(), genealogy.CreateMediaArgs{
		FileLocation: "/photos/farm.jpg",
		Desc:         "The farm",
		NoteList:     []string{"n1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Successfully created media:\n\nimage/jpeg - O0001 - [m1]\nThe farm\n\n", got)

	assert.Equal(t, "jpeg bytes", string(uploaded))
	assert.Equal(t, "image/jpeg", uploadType)

	puts := srv.RequestsTo(http.MethodPut, "media/m1")
	require.Len(t, puts, 1)
	body := puts[0].JSON()
	assert.Equal(t, "The farm", body["desc"])
	assert.Equal(t, "abc.jpg", body["path"])
	assert.Equal(t, []any{"n1"}, body["note_list"])
	assert.NotContains(t, body, "file_location")
}

func TestCreateMedia_UpdateMetadata(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("media/m1", map[string]any{"handle": "m1", "gramps_id": "O0001", "mime": "image/png", "desc": "Old"})
	srv.Handle(http.MethodPut, "media/m1", created(map[string]any{"handle": "m1", "gramps_id": "O0001"}))
	svc := newService(t, srv, genealogy.WithFs(afero.NewMemMapFs()))

	got, err := svc.CreateMedia(context.Background(), genealogy.CreateMediaArgs{Handle: "m1", Desc: "Church"})
	require.NoError(t, err)
	assert.Contains(t, got, "Successfully updated media:")
	assert.Empty(t, srv.RequestsTo(http.MethodPost, "media/"))
	assert.Equal(t, "Church", srv.RequestsTo(http.MethodPut, "media/m1")[0].JSON()["desc"])
}

func TestCreateMedia_Errors(t *testing.T) {
	srv := grampstest.NewServer(t)
	svc := newService(t, srv, genealogy.WithFs(afero.NewMemMapFs()))
	ctx := context.Background()

	tests := []struct {
		name string
		args genealogy.CreateMediaArgs
		want string
	}{
		{"missing desc", genealogy.CreateMediaArgs{FileLocation: "/a.jpg"}, "validation failed for desc: is required"},
		{"missing file location", genealogy.CreateMediaArgs{Desc: "x"}, "Unexpected error during media save: file_location is required to create new media."},
		{"missing file", genealogy.CreateMediaArgs{Desc: "x", FileLocation: "/nope.jpg"}, "Unexpected error during media save: File not found: /nope.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateMedia(ctx, tt.args)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
	assert.Empty(t, srv.Requests())
}

func TestCreateMedia_UnexpectedUploadResponse(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/doc.pdf", []byte("%PDF"), 0o644))
	srv := grampstest.NewServer(t)
	srv.Handle(http.MethodPost, "media/", func(w http.ResponseWriter, r *http.Request) {
		grampstest.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	svc := newService(t, srv, genealogy.WithFs(fs))

	_, err := svc.CreateMedia(context.Background(), genealogy.CreateMediaArgs{Desc: "Deed", FileLocation: "/doc.pdf"})
	require.Error(t, err)
	assert.Equal(t, "Media upload did not return the expected new object.", err.Error())
	assert.Equal(t, "application/pdf", srv.RequestsTo(http.MethodPost, "media/")[0].Header.Get("Content-Type"))
}
