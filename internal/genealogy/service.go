// Package genealogy implements the Gramps MCP tools. Every tool validates its
// arguments, calls one or two Gramps Web API endpoints and renders the result
// as text with the format package.
package genealogy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/olgasafonova/gramps-mcp-server/internal/errors"
	"github.com/olgasafonova/gramps-mcp-server/internal/format"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
	"github.com/spf13/afero"
)

// API is the part of gramps.Client the tools use.
type API interface {
	format.Fetcher
	CallWithHeaders(ctx context.Context, ep gramps.Endpoint, params gramps.Params, path gramps.PathParams) (any, http.Header, error)
	GetRaw(ctx context.Context, ep gramps.Endpoint, path gramps.PathParams) ([]byte, error)
	UploadMedia(ctx context.Context, content []byte, mimeType string) (any, error)
}

// PollConfig controls how report tasks are awaited.
type PollConfig struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
	Timeout    time.Duration
}

// DefaultPollConfig polls after 2s, backing off by 1.5x up to 10s, for at
// most a minute.
var DefaultPollConfig = PollConfig{
	Initial:    2 * time.Second,
	Multiplier: 1.5,
	Max:        10 * time.Second,
	Timeout:    60 * time.Second,
}

// Service implements the tools against one Gramps tree.
type Service struct {
	api    API
	format *format.Formatter
	fs     afero.Fs
	logger *slog.Logger
	poll   PollConfig
}

// Option configures a Service.
type Option func(*Service)

// WithFs sets the filesystem media files are read from.
func WithFs(fs afero.Fs) Option {
	return func(s *Service) { s.fs = fs }
}

// WithPolling overrides the report task polling schedule.
func WithPolling(p PollConfig) Option {
	return func(s *Service) { s.poll = p }
}

// New creates a Service.
func New(api API, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		api:    api,
		format: format.New(api, logger),
		fs:     afero.NewOsFs(),
		logger: logger,
		poll:   DefaultPollConfig,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ToolError is a tool failure reported to the client as an error result.
// Upstream, auth, validation and lookup failures show their own message;
// anything else is reported as unexpected.
type ToolError struct {
	Op  string
	Err error
}

func (e *ToolError) Error() string {
	var msg userError
	if errors.As(e.Err, &msg) || apperrors.IsAPI(e.Err) || apperrors.IsAuth(e.Err) ||
		apperrors.IsValidation(e.Err) || apperrors.IsNotFound(e.Err) {
		return e.Err.Error()
	}
	return fmt.Sprintf("Unexpected error during %s: %v", e.Op, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// userError is shown to the client verbatim.
type userError string

func (e userError) Error() string { return string(e) }

// fail logs and wraps err for op.
func (s *Service) fail(op string, err error) error {
	te := &ToolError{Op: op, Err: err}
	s.logger.Error("Tool error", "operation", op, "error", te.Error())
	return te
}
