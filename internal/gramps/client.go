// Package gramps is the client for the Gramps Web REST API. It turns endpoint
// descriptions into authenticated HTTP calls and decodes the loosely typed JSON
// responses.
package gramps

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/olgasafonova/gramps-mcp-server/internal/auth"
	"github.com/olgasafonova/gramps-mcp-server/internal/base"
	apperrors "github.com/olgasafonova/gramps-mcp-server/internal/errors"
	"github.com/olgasafonova/gramps-mcp-server/internal/infra"
	"github.com/olgasafonova/gramps-mcp-server/metrics"
	"github.com/spf13/cast"
)

// Params are query parameters (GET) or the JSON body (POST/PUT).
type Params map[string]any

// PathParams fill the {placeholders} of an endpoint path.
type PathParams map[string]string

// Client talks to one Gramps Web tree.
type Client struct {
	http    *base.Client
	tokens  *auth.TokenManager
	logger  *slog.Logger
	apiBase string
	treeID  string

	cache    *infra.Cache[[]byte]
	cacheTTL time.Duration
	flight   infra.Coalescer
}

// Options configure a Client.
type Options struct {
	APIBase  string // API root, ending in /api
	TreeID   string
	CacheTTL time.Duration // <0 disables the record cache
	// CacheSize bounds the number of cached record responses.
	CacheSize int
}

// NewClient creates a client. The token manager must target the same API root.
func NewClient(httpClient *base.Client, tokens *auth.TokenManager, logger *slog.Logger, opts Options) *Client {
	c := &Client{
		http:     httpClient,
		tokens:   tokens,
		logger:   logger,
		apiBase:  strings.TrimRight(opts.APIBase, "/"),
		treeID:   opts.TreeID,
		cacheTTL: opts.CacheTTL,
	}
	if opts.CacheTTL >= 0 {
		c.cache = infra.NewCache[[]byte](opts.CacheSize)
		c.cache.OnEvict = func(string) { metrics.CacheEvictions.Inc() }
	}
	return c
}

// Close stops background work.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// TreeID returns the configured tree.
func (c *Client) TreeID() string { return c.treeID }

// Call performs ep and decodes the response.
func (c *Client) Call(ctx context.Context, ep Endpoint, params Params, path PathParams) (any, error) {
	v, _, err := c.CallWithHeaders(ctx, ep, params, path)
	return v, err
}

// CallWithHeaders is Call that also returns the response headers.
func (c *Client) CallWithHeaders(ctx context.Context, ep Endpoint, params Params, path PathParams) (any, http.Header, error) {
	rel, err := c.expand(ep.Path, path)
	if err != nil {
		return nil, nil, err
	}

	var query url.Values
	var body []byte
	sendAsBody := (ep.Method == http.MethodPost || ep.Method == http.MethodPut) && !ep.QueryParams

	if sendAsBody && params != nil {
		payload := Object(params)
		if ep.Method == http.MethodPut {
			handle := path["handle"]
			if handle == "" {
				handle = cast.ToString(params["handle"])
			}
			if handle != "" {
				payload, err = c.mergeWithExisting(ctx, ep, rel, payload)
				if err != nil {
					return nil, nil, err
				}
			}
		}
		if body, err = json.Marshal(payload); err != nil {
			return nil, nil, fmt.Errorf("encoding request body: %w", err)
		}
	} else {
		query = EncodeQuery(params)
	}

	resp, err := c.send(ctx, ep, rel, query, body, "application/json")
	if err != nil {
		return nil, nil, err
	}
	if ep.Method != http.MethodGet {
		c.invalidate(ep)
	}
	return Decode(resp.Body), resp.Header, nil
}

// Record fetches one record of kind by handle.
func (c *Client) Record(ctx context.Context, kind Kind, handle string, params Params) (Object, error) {
	v, err := c.Call(ctx, kind.Get(), params, PathParams{"handle": handle})
	if err != nil {
		return nil, err
	}
	obj := AsObject(v)
	if obj == nil {
		return nil, fmt.Errorf("unexpected %s response for %s", kind, handle)
	}
	return obj, nil
}

// GetRaw performs a GET and returns the body bytes undecoded.
func (c *Client) GetRaw(ctx context.Context, ep Endpoint, path PathParams) ([]byte, error) {
	rel, err := c.expand(ep.Path, path)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, ep, rel, nil, nil, "")
	if err != nil {
		return nil, err
	}
	metrics.ContentSize.WithLabelValues("download").Observe(float64(len(resp.Body)))
	return resp.Body, nil
}

// UploadMedia posts raw file bytes to media/ and returns the decoded response.
func (c *Client) UploadMedia(ctx context.Context, content []byte, mimeType string) (any, error) {
	ep := Media.Create()
	metrics.ContentSize.WithLabelValues("upload").Observe(float64(len(content)))
	resp, err := c.send(ctx, ep, "media/", nil, content, mimeType)
	if err != nil {
		return nil, err
	}
	c.invalidate(ep)
	return Decode(resp.Body), nil
}

func (c *Client) mergeWithExisting(ctx context.Context, ep Endpoint, rel string, changes Object) (Object, error) {
	resp, err := c.send(ctx, Endpoint{Method: http.MethodGet, Path: ep.Path}, rel, nil, nil, "")
	if err != nil {
		return nil, err
	}
	existing := AsObject(Decode(resp.Body))
	if len(existing) == 0 {
		return changes, nil
	}
	return Merge(existing, changes), nil
}

// send runs one request with auth, caching for cacheable reads and a single
// re-login on 401. Non-2xx statuses become APIErrors.
func (c *Client) send(ctx context.Context, ep Endpoint, rel string, query url.Values, body []byte, contentType string) (*base.Response, error) {
	cacheKey := ""
	if ep.Method == http.MethodGet && ep.Cacheable && c.cache != nil {
		cacheKey = rel
		if len(query) > 0 {
			cacheKey += "?" + query.Encode()
		}
		if data, ok := c.cache.Get(cacheKey); ok {
			metrics.RecordCacheAccess(true)
			return &base.Response{Status: http.StatusOK, Header: http.Header{}, Body: data}, nil
		}
		metrics.RecordCacheAccess(false)
	}

	do := func() (any, error) {
		return c.sendAuthed(ctx, ep, rel, query, body, contentType)
	}

	var v any
	var err error
	if ep.Method == http.MethodGet {
		key := rel + "?" + query.Encode()
		v, _, err = c.flight.Do(ctx, key, do)
	} else {
		v, err = do()
	}
	if err != nil {
		return nil, err
	}
	resp := v.(*base.Response)

	if cacheKey != "" {
		c.cache.Set(cacheKey, resp.Body, c.cacheTTL)
		metrics.SetCacheSize(c.cache.Size())
	}
	return resp, nil
}

func (c *Client) sendAuthed(ctx context.Context, ep Endpoint, rel string, query url.Values, body []byte, contentType string) (*base.Response, error) {
	retried := false
	for {
		headers, err := c.tokens.Headers(ctx)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			headers.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(ctx, base.Request{
			Method:   ep.Method,
			URL:      c.apiBase + "/" + rel,
			Endpoint: ep.Path,
			Query:    query,
			Body:     body,
			Header:   headers,
		})
		if err != nil {
			return nil, err
		}

		if resp.Status == http.StatusUnauthorized && !retried {
			c.logger.Info("Got 401 from Gramps API, refreshing token and retrying", "endpoint", ep.Path)
			c.tokens.Invalidate()
			retried = true
			continue
		}
		if resp.Status < 200 || resp.Status >= 300 {
			c.logger.Debug("Gramps API returned an error status",
				"method", ep.Method, "endpoint", ep.Path, "status", resp.Status)
			return nil, apperrors.NewStatusError(resp.Status)
		}
		return resp, nil
	}
}

// invalidate drops cached reads after a write. Gramps updates back-references
// on related records (a new family touches its members), so everything goes.
func (c *Client) invalidate(ep Endpoint) {
	if c.cache == nil {
		return
	}
	kind := strings.SplitN(ep.Path, "/", 2)[0]
	if n := c.cache.DeletePrefix(""); n > 0 {
		metrics.CacheInvalidations.WithLabelValues(kind).Add(float64(n))
	}
	metrics.SetCacheSize(c.cache.Size())
}

var placeholder = regexp.MustCompile(`\{([^}]+)\}`)

// expand substitutes path parameters into an endpoint path.
func (c *Client) expand(pattern string, path PathParams) (string, error) {
	out := pattern
	if strings.Contains(out, "{tree_id}") {
		out = strings.ReplaceAll(out, "{tree_id}", url.PathEscape(c.treeID))
	}
	for name, value := range path {
		out = strings.ReplaceAll(out, "{"+name+"}", url.PathEscape(value))
	}
	if missing := placeholder.FindAllStringSubmatch(out, -1); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, m[1])
		}
		return "", fmt.Errorf("Missing required URL parameters: [%s]", strings.Join(names, ", "))
	}
	return out, nil
}

// EncodeQuery turns params into a query string. Nil and empty values are
// dropped, bools become "true"/"false" and lists repeat the key.
func EncodeQuery(params Params) url.Values {
	if len(params) == 0 {
		return nil
	}
	q := url.Values{}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := params[k].(type) {
		case nil:
		case []string:
			for _, s := range v {
				q.Add(k, s)
			}
		case []any:
			for _, item := range v {
				q.Add(k, cast.ToString(item))
			}
		case bool:
			q.Set(k, fmt.Sprint(v))
		default:
			if s := cast.ToString(v); s != "" {
				q.Set(k, s)
			}
		}
	}
	return q
}

// Decode parses a response body. Empty bodies decode to an empty object and
// non-JSON bodies to {"error": "Invalid JSON response", "raw_content": text}.
func Decode(body []byte) any {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return Object{}
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return Object{"error": "Invalid JSON response", "raw_content": string(body)}
	}
	if m, ok := v.(map[string]any); ok {
		return Object(m)
	}
	return v
}
