package genealogy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/olgasafonova/gramps-mcp-server/internal/errors"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
	"github.com/olgasafonova/gramps-mcp-server/metrics"
)

// CreatePerson creates a person, or updates one when a handle is given.
func (s *Service) CreatePerson(ctx context.Context, args CreatePersonArgs) (string, error) {
	const op = "person save"
	if err := ValidateName("primary_name", args.PrimaryName); err != nil {
		return "", s.fail(op, err)
	}
	if args.Gender == nil {
		return "", s.fail(op, apperrors.NewValidationError("gender", "", "is required"))
	}
	if g := *args.Gender; g < 0 || g > 2 {
		return "", s.fail(op, apperrors.NewValidationError("gender", fmt.Sprint(g), "must be 0 (female), 1 (male) or 2 (unknown)"))
	}
	if err := validateEventRefs(args.EventRefList); err != nil {
		return "", s.fail(op, err)
	}

	payload, err := toPayload(args)
	if err != nil {
		return "", s.fail(op, err)
	}
	return s.save(ctx, op, gramps.People, "person", payload)
}

// CreateFamily creates a family, or updates one when a handle is given.
// Children are sent as ChildRef objects.
func (s *Service) CreateFamily(ctx context.Context, args CreateFamilyArgs) (string, error) {
	const op = "family save"
	if err := validateEventRefs(args.EventRefList); err != nil {
		return "", s.fail(op, err)
	}

	children := args.ChildHandles
	args.ChildHandles = nil
	payload, err := toPayload(args)
	if err != nil {
		return "", s.fail(op, err)
	}
	if len(children) > 0 {
		refs := make([]any, 0, len(children))
		for _, h := range children {
			refs = append(refs, map[string]any{"_class": "ChildRef", "ref": h})
		}
		payload["child_ref_list"] = refs
	}
	return s.save(ctx, op, gramps.Families, "family", payload)
}

// CreateEvent creates an event, or updates one when a handle is given.
func (s *Service) CreateEvent(ctx context.Context, args CreateEventArgs) (string, error) {
	const op = "event save"
	if err := requireText("type", args.Type); err != nil {
		return "", s.fail(op, err)
	}
	if args.CitationList == nil {
		return "", s.fail(op, apperrors.NewValidationError("citation_list", "", "is required"))
	}
	if err := ValidateDate("date", args.Date); err != nil {
		return "", s.fail(op, err)
	}

	payload, err := toPayload(args)
	if err != nil {
		return "", s.fail(op, err)
	}
	// citation_list is sent even when empty.
	payload["citation_list"] = toAnyList(args.CitationList)
	return s.save(ctx, op, gramps.Events, "event", payload)
}

// CreatePlace creates a place, or updates one when a handle is given.
func (s *Service) CreatePlace(ctx context.Context, args CreatePlaceArgs) (string, error) {
	const op = "place save"
	if err := requireText("place_type", args.PlaceType); err != nil {
		return "", s.fail(op, err)
	}
	payload, err := toPayload(args)
	if err != nil {
		return "", s.fail(op, err)
	}
	return s.save(ctx, op, gramps.Places, "place", payload)
}

// CreateSource creates a source, or updates one when a handle is given.
func (s *Service) CreateSource(ctx context.Context, args CreateSourceArgs) (string, error) {
	const op = "source save"
	if args.Title == "" {
		return "", s.fail(op, apperrors.NewValidationError("title", "", "must be at least 1 character"))
	}
	payload, err := toPayload(args)
	if err != nil {
		return "", s.fail(op, err)
	}
	return s.save(ctx, op, gramps.Sources, "source", payload)
}

// CreateCitation creates a citation, or updates one when a handle is given.
func (s *Service) CreateCitation(ctx context.Context, args CreateCitationArgs) (string, error) {
	const op = "citation save"
	if err := requireText("source_handle", args.SourceHandle); err != nil {
		return "", s.fail(op, err)
	}
	if err := ValidateDate("date", args.Date); err != nil {
		return "", s.fail(op, err)
	}
	if c := args.Confidence; c != nil && (*c < 0 || *c > 4) {
		return "", s.fail(op, apperrors.NewValidationError("confidence", fmt.Sprint(*c), "must be between 0 and 4"))
	}
	payload, err := toPayload(args)
	if err != nil {
		return "", s.fail(op, err)
	}
	return s.save(ctx, op, gramps.Citations, "citation", payload)
}

// CreateNote creates a note, or updates one when a handle is given. The text
// is sent as StyledText.
func (s *Service) CreateNote(ctx context.Context, args CreateNoteArgs) (string, error) {
	const op = "note save"
	if err := requireText("text", args.Text); err != nil {
		return "", s.fail(op, err)
	}
	if err := requireText("type", args.Type); err != nil {
		return "", s.fail(op, err)
	}
	payload := gramps.Object{
		"text": map[string]any{"_class": "StyledText", "string": args.Text},
		"type": args.Type,
	}
	if args.Handle != "" {
		payload["handle"] = args.Handle
	}
	return s.save(ctx, op, gramps.Notes, "note", payload)
}

// CreateRepository creates a repository, or updates one when a handle is
// given.
func (s *Service) CreateRepository(ctx context.Context, args CreateRepositoryArgs) (string, error) {
	const op = "repository save"
	if args.Name == "" {
		return "", s.fail(op, userError("'name' parameter is required for repository"))
	}
	if args.Type == "" {
		return "", s.fail(op, userError("'type' parameter is required for repository"))
	}
	payload, err := toPayload(args)
	if err != nil {
		return "", s.fail(op, err)
	}
	return s.save(ctx, op, gramps.Repositories, "repository", payload)
}

// save POSTs a new record or PUTs an update when the payload has a handle,
// then renders the stored record.
func (s *Service) save(ctx context.Context, op string, kind gramps.Kind, typ string, payload gramps.Object) (string, error) {
	var (
		result    any
		err       error
		operation = "created"
	)
	if handle := payload.Handle(); handle != "" {
		operation = "updated"
		result, err = s.api.Call(ctx, kind.Update(), gramps.Params(payload), gramps.PathParams{"handle": handle})
	} else {
		result, err = s.api.Call(ctx, kind.Create(), gramps.Params(payload), nil)
	}
	if err != nil {
		metrics.RecordWrite(typ, operation, false)
		return "", s.fail(op, err)
	}
	metrics.RecordWrite(typ, operation, true)

	entity := extractEntity(result, typ)
	s.logger.Info("Saved record", "type", typ, "operation", operation,
		"handle", entity.Handle(), "gramps_id", entity.GrampsID())
	return s.saveResponse(ctx, kind, typ, operation, entity), nil
}

// extractEntity picks the saved record out of a write response. Gramps
// answers with a list of changed objects, [{"new": {...}}, ...]; creating a
// family also touches its members, so the family entry is looked up by class.
func extractEntity(result any, typ string) gramps.Object {
	list := gramps.AsObjects(result)
	if len(list) == 0 {
		if obj := gramps.AsObject(result); obj != nil {
			return obj
		}
		return gramps.Object{}
	}
	if typ == "family" && len(list) > 1 {
		for _, entry := range list {
			if n := entry.Obj("new"); n.Str("_class") == "Family" {
				return n
			}
		}
	}
	if n := list[0].Obj("new"); len(n) > 0 {
		return n
	}
	return list[0]
}

// saveResponse renders "Successfully <op> <type>:" followed by the record.
// When the record cannot be rendered, its ID and handle are shown instead.
func (s *Service) saveResponse(ctx context.Context, kind gramps.Kind, typ, operation string, entity gramps.Object) string {
	handle := entity.StrOr("handle", "N/A")
	gid := entity.StrOr("gramps_id", "N/A")

	details := ""
	if handle != "N/A" {
		details = s.format.ByKind(ctx, kind, handle)
	}
	if details == "" {
		return fmt.Sprintf("Successfully %s %s: **%s %s**\n\n**ID:** %s\n**Handle:** `%s`\n",
			operation, typ, capitalize(typ), gid, gid, handle)
	}
	return fmt.Sprintf("Successfully %s %s:\n\n%s", operation, typ, details)
}

// toPayload turns tool arguments into the JSON object sent upstream. The
// round trip through JSON gives plain maps and []any lists, which is what
// gramps.Merge works on for updates.
func toPayload(args any) (gramps.Object, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	var payload gramps.Object
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return payload, nil
}

func validateEventRefs(refs []EventRef) error {
	for i, ref := range refs {
		if ref.Ref == "" || ref.Role == "" {
			return apperrors.NewValidationError(fmt.Sprintf("event_ref_list[%d]", i), "", "ref and role are required")
		}
	}
	return nil
}

func toAnyList(items []string) []any {
	out := make([]any, 0, len(items))
	for _, s := range items {
		out = append(out, s)
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
