package genealogy_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olgasafonova/gramps-mcp-server/internal/genealogy"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps/grampstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPoll = genealogy.PollConfig{
	Initial:    time.Millisecond,
	Multiplier: 1.5,
	Max:        5 * time.Millisecond,
	Timeout:    2 * time.Second,
}

const reportHTML = `<html><head><style>p{}</style></head><body><h1>Descendants of Anna Berg</h1><p>Children of Anna</p></body></html>`

func serveHTML(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}
}

func TestTreeStats(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("trees/tree1", map[string]any{"id": "tree1", "name": "Berg family", "usage_people": 1234})
	svc := newService(t, srv)

	got, err := svc.TreeStats(context.Background(), genealogy.TreeStatsArgs{})
	require.NoError(t, err)
	assert.Contains(t, got, "# Family Tree: Berg family\n\n")
	assert.Contains(t, got, "• **People:** 1,234\n")
}

func TestGetDescendants_DirectFile(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Handle(http.MethodPost, "reports/descend_report/file", func(w http.ResponseWriter, r *http.Request) {
		grampstest.WriteJSON(w, http.StatusCreated, map[string]any{"file_name": "abc.html"})
	})
	srv.Handle(http.MethodGet, "reports/descend_report/file/processed/abc.html", serveHTML(reportHTML))
	svc := newService(t, srv, genealogy.WithPolling(fastPoll))

	got, err := svc.GetDescendants(context.Background(), genealogy.LineageArgs{GrampsID: "I0001", MaxGenerations: 3})
	require.NoError(t, err)
	assert.Contains(t, got, "# Descendants of Anna Berg")
	assert.Contains(t, got, "Children of Anna")
	assert.NotContains(t, got, "p{}")

	posts := srv.RequestsTo(http.MethodPost, "reports/descend_report/file")
	require.Len(t, posts, 1)
	assert.JSONEq(t, `{"pid":"I0001","off":"html","gen":"3"}`, posts[0].Query.Get("options"))
	assert.Empty(t, srv.RequestsTo(http.MethodGet, "tasks/"))
}

func TestGetAncestors_PollsTask(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Handle(http.MethodPost, "reports/ancestor_report/file", func(w http.ResponseWriter, r *http.Request) {
		grampstest.WriteJSON(w, http.StatusAccepted, map[string]any{"task": map[string]any{"id": "t1"}})
	})
	var polls atomic.Int32
	srv.Handle(http.MethodGet, "tasks/t1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			grampstest.WriteJSON(w, http.StatusOK, map[string]any{"state": "PENDING"})
			return
		}
		grampstest.WriteJSON(w, http.StatusOK, map[string]any{"state": "SUCCESS", "result_object": map[string]any{"file_name": "anc.html"}})
	})
	srv.Handle(http.MethodGet, "reports/ancestor_report/file/processed/anc.html", serveHTML("<h2>Ancestors</h2>"))
	svc := newService(t, srv, genealogy.WithPolling(fastPoll))

	got, err := svc.GetAncestors(context.Background(), genealogy.LineageArgs{GrampsID: "I0001"})
	require.NoError(t, err)
	assert.Contains(t, got, "## Ancestors")
	assert.Equal(t, int32(3), polls.Load())

	posts := srv.RequestsTo(http.MethodPost, "reports/ancestor_report/file")
	require.Len(t, posts, 1)
	assert.JSONEq(t, `{"pid":"I0001","off":"html","maxgen":"5"}`, posts[0].Query.Get("options"))
}

func TestGetAncestors_TaskFailure(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Handle(http.MethodPost, "reports/ancestor_report/file", func(w http.ResponseWriter, r *http.Request) {
		grampstest.WriteJSON(w, http.StatusAccepted, map[string]any{"task": map[string]any{"id": 42}})
	})
	srv.Set("tasks/42", map[string]any{"state": "FAILURE", "info": "person not found"})
	svc := newService(t, srv, genealogy.WithPolling(fastPoll))

	_, err := svc.GetAncestors(context.Background(), genealogy.LineageArgs{GrampsID: "I9999"})
	require.Error(t, err)
	assert.Equal(t, "Task 42 failed: person not found", err.Error())
	assert.Len(t, srv.RequestsTo(http.MethodGet, "tasks/42"), 1)
}

func TestGetDescendants_TaskTimeout(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Handle(http.MethodPost, "reports/descend_report/file", func(w http.ResponseWriter, r *http.Request) {
		grampstest.WriteJSON(w, http.StatusAccepted, map[string]any{"task": map[string]any{"id": "slow"}})
	})
	srv.Set("tasks/slow", map[string]any{"state": "STARTED"})
	poll := fastPoll
	poll.Timeout = 30 * time.Millisecond
	svc := newService(t, srv, genealogy.WithPolling(poll))

	_, err := svc.GetDescendants(context.Background(), genealogy.LineageArgs{GrampsID: "I0001"})
	require.Error(t, err)
	assert.Equal(t, "Task slow timed out after 0 seconds", err.Error())
	assert.Greater(t, len(srv.RequestsTo(http.MethodGet, "tasks/slow")), 1)
}

func TestGetDescendants_Errors(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Handle(http.MethodPost, "reports/descend_report/file", func(w http.ResponseWriter, r *http.Request) {
		grampstest.WriteJSON(w, http.StatusOK, map[string]any{"status": "queued"})
	})
	svc := newService(t, srv, genealogy.WithPolling(fastPoll))
	ctx := context.Background()

	_, err := svc.GetDescendants(ctx, genealogy.LineageArgs{})
	require.Error(t, err)
	assert.Equal(t, "Unexpected error during descendants search: gramps_id is required", err.Error())

	_, err = svc.GetDescendants(ctx, genealogy.LineageArgs{GrampsID: "I0001"})
	require.Error(t, err)
	assert.Equal(t, "Report generated but filename not found in response. Response: map[status:queued]", err.Error())
}

func TestRecentChanges(t *testing.T) {
	srv := grampstest.NewServer(t)
	srv.Set("transactions/history/", []any{
		map[string]any{
			"description": "Add person",
			"timestamp":   "yesterday",
			"connection":  map[string]any{"user": map[string]any{"name": "owner"}},
			"changes":     []any{map[string]any{"obj_class": "Person", "obj_handle": "p1"}},
		},
	})
	srv.Set("people/p1", anna)
	svc := newService(t, srv)

	got, err := svc.RecentChanges(context.Background(), genealogy.RecentChangesArgs{Pagesize: 5, After: 1700000000})
	require.NoError(t, err)
	assert.Equal(t, "Found 1 recent changes:\n\n"+
		"• **Add person**\n"+
		"  Time: yesterday\n"+
		"  User: owner\n"+
		"  Objects changed:\n"+
		"    - Person: I0001\n\n", got)

	reqs := srv.RequestsTo(http.MethodGet, "transactions/history/")
	require.Len(t, reqs, 1)
	q := reqs[0].Query
	assert.Equal(t, "-id", q.Get("sort"))
	assert.Equal(t, "5", q.Get("pagesize"))
	assert.Equal(t, "1700000000", q.Get("after"))
	assert.False(t, q.Has("page"))
	assert.False(t, q.Has("old"))
}
