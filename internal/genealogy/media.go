package genealogy

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"

	apperrors "github.com/olgasafonova/gramps-mcp-server/internal/errors"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
	"github.com/olgasafonova/gramps-mcp-server/metrics"
	"github.com/spf13/afero"
)

const defaultMimeType = "application/octet-stream"

// CreateMedia updates a media object when a handle is given. Otherwise it
// uploads file_location, which creates the object, and then stores the
// metadata on it.
func (s *Service) CreateMedia(ctx context.Context, args CreateMediaArgs) (string, error) {
	const op = "media save"
	if err := requireText("desc", args.Desc); err != nil {
		return "", s.fail(op, err)
	}
	if err := ValidateDate("date", args.Date); err != nil {
		return "", s.fail(op, err)
	}

	meta, err := toPayload(args)
	if err != nil {
		return "", s.fail(op, err)
	}
	delete(meta, "file_location")

	if args.Handle != "" {
		return s.save(ctx, op, gramps.Media, "media", meta)
	}

	if args.FileLocation == "" {
		return "", s.fail(op, errors.New("file_location is required to create new media."))
	}
	content, err := s.readFile(args.FileLocation)
	if err != nil {
		return "", s.fail(op, err)
	}

	uploaded, err := s.api.UploadMedia(ctx, content, guessMimeType(args.FileLocation))
	if err != nil {
		metrics.RecordWrite("media", "created", false)
		return "", s.fail(op, err)
	}
	created := gramps.AsObjects(uploaded)
	if len(created) == 0 || created[0].Obj("new") == nil {
		metrics.RecordWrite("media", "created", false)
		return "", s.fail(op, &apperrors.APIError{Message: "Media upload did not return the expected new object."})
	}

	record := created[0].Obj("new").Clone()
	for k, v := range meta {
		record[k] = v
	}
	handle := record.Handle()
	s.logger.Info("Uploaded media file", "path", args.FileLocation, "handle", handle, "bytes", len(content))

	result, err := s.api.Call(ctx, gramps.Media.Update(), gramps.Params(record), gramps.PathParams{"handle": handle})
	if err != nil {
		metrics.RecordWrite("media", "created", false)
		return "", s.fail(op, err)
	}
	metrics.RecordWrite("media", "created", true)
	return s.saveResponse(ctx, gramps.Media, "media", "created", extractEntity(result, "media")), nil
}

// readFile reads a regular file from the service filesystem.
func (s *Service) readFile(path string) ([]byte, error) {
	info, err := s.fs.Stat(path)
	if err != nil || info.IsDir() {
		return nil, errors.New("File not found: " + path)
	}
	return afero.ReadFile(s.fs, path)
}

// guessMimeType derives the MIME type from the file extension, without
// parameters such as charset.
func guessMimeType(path string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if t == "" {
		return defaultMimeType
	}
	t, _, _ = strings.Cut(t, ";")
	return strings.TrimSpace(t)
}
