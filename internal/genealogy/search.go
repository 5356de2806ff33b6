package genealogy

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/olgasafonova/gramps-mcp-server/internal/errors"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
	"github.com/spf13/cast"
)

// DefaultMaxResults is the page size used when a search gives none.
const DefaultMaxResults = 20

// searchable maps the find_type record types to their kind and the plural
// used in messages.
var searchable = map[string]struct {
	kind   gramps.Kind
	plural string
}{
	"person":     {gramps.People, "people"},
	"family":     {gramps.Families, "families"},
	"event":      {gramps.Events, "events"},
	"place":      {gramps.Places, "places"},
	"source":     {gramps.Sources, "sources"},
	"citation":   {gramps.Citations, "citations"},
	"media":      {gramps.Media, "media files"},
	"repository": {gramps.Repositories, "repositories"},
	"note":       {gramps.Notes, "notes"},
}

// SearchTypes lists the record types find_type accepts.
var SearchTypes = []string{"person", "family", "event", "place", "source", "citation", "media", "repository", "note"}

// FindType lists records of one type filtered by a GQL query.
func (s *Service) FindType(ctx context.Context, args FindTypeArgs) (string, error) {
	target, ok := searchable[strings.ToLower(args.Type)]
	if !ok {
		return "", s.fail("search", userError(fmt.Sprintf("Entity type '%s' not supported", args.Type)))
	}
	op := target.plural + " search"

	results, total, err := s.list(ctx, target.kind, args.GQL, maxResults(args.MaxResults))
	if err != nil {
		return "", s.fail(op, err)
	}
	if len(results) == 0 {
		return "No " + target.plural + " found", nil
	}

	var b strings.Builder
	b.WriteString(foundHeader(total, len(results), target.plural))
	for _, item := range results {
		if h := unwrap(item).Handle(); h != "" {
			b.WriteString(s.format.ByKind(ctx, target.kind, h))
		}
	}
	return b.String(), nil
}

// list runs a GQL list query. The API answers with a bare list or with
// {"data", "total_count"}.
func (s *Service) list(ctx context.Context, kind gramps.Kind, gql string, pagesize int) ([]gramps.Object, int, error) {
	resp, err := s.api.Call(ctx, kind.List(), gramps.Params{"gql": gql, "pagesize": pagesize}, nil)
	if err != nil {
		return nil, 0, err
	}

	var results []gramps.Object
	total := -1
	if obj := gramps.AsObject(resp); obj != nil {
		results = obj.Objects("data")
		if obj["total_count"] != nil {
			total = obj.Int("total_count")
		}
	} else {
		results = gramps.AsObjects(resp)
	}
	if total < 0 {
		total = len(results)
	}
	if len(results) > pagesize {
		results = results[:pagesize]
	}
	return results, total, nil
}

// FindAnything runs a full-text search across all record types.
func (s *Service) FindAnything(ctx context.Context, args FindAnythingArgs) (string, error) {
	const op = "full-text search"
	if err := requireText("query", args.Query); err != nil {
		return "", s.fail(op, err)
	}
	pagesize := maxResults(args.MaxResults)

	resp, header, err := s.api.CallWithHeaders(ctx, gramps.Search, gramps.Params{"query": args.Query, "pagesize": pagesize}, nil)
	if err != nil {
		return "", s.fail(op, err)
	}

	results := gramps.AsObjects(resp)
	if obj := gramps.AsObject(resp); obj != nil {
		results = obj.Objects("data")
	}
	if len(results) == 0 {
		return fmt.Sprintf("No records found matching '%s'", args.Query), nil
	}

	total := len(results)
	if v := header.Get("X-Total-Count"); v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			total = n
		}
	}
	if len(results) > pagesize {
		results = results[:pagesize]
	}

	var b strings.Builder
	b.WriteString(foundHeader(total, len(results), fmt.Sprintf("records matching '%s'", args.Query)))
	for _, item := range results {
		b.WriteString(s.format.SearchResult(ctx, item))
	}
	return b.String(), nil
}

// GetType renders the detailed view of a person or family, found by handle or
// by Gramps ID.
func (s *Service) GetType(ctx context.Context, args GetTypeArgs) (string, error) {
	typ := strings.ToLower(args.Type)
	op := typ + " details retrieval"
	if err := validateChoice("type", typ, []string{"person", "family"}); err != nil {
		return "", s.fail(op, err)
	}
	target := searchable[typ]

	handle := args.Handle
	if handle == "" && args.GrampsID != "" {
		results, _, err := s.list(ctx, target.kind, fmt.Sprintf("gramps_id=%q", args.GrampsID), 1)
		if err != nil {
			return "", s.fail(op, err)
		}
		for _, item := range results {
			if h := unwrap(item).Handle(); h != "" {
				handle = h
				break
			}
		}
	}
	if handle == "" {
		if args.GrampsID == "" {
			return "", s.fail(op, apperrors.NewValidationError("handle", "", "a handle or gramps_id is required"))
		}
		return "", s.fail(op, apperrors.NewNotFoundError(typ, args.GrampsID))
	}

	var out string
	var err error
	if typ == "person" {
		out, err = s.format.PersonDetail(ctx, handle)
	} else {
		out, err = s.format.FamilyDetail(ctx, handle)
	}
	if err != nil {
		return "", s.fail(op, err)
	}
	return out, nil
}

// unwrap returns the record inside a {"object": ...} search wrapper.
func unwrap(item gramps.Object) gramps.Object {
	if inner := item.Obj("object"); inner != nil {
		return inner
	}
	return item
}

func maxResults(n int) int {
	if n <= 0 {
		return DefaultMaxResults
	}
	return n
}

// foundHeader renders "Found N what:" with "(showing M)" when the page holds
// fewer than the total.
func foundHeader(total, shown int, what string) string {
	if total > shown {
		return fmt.Sprintf("Found %d %s (showing %d):\n\n", total, what, shown)
	}
	return fmt.Sprintf("Found %d %s:\n\n", total, what)
}
