package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordRequest(t *testing.T) {
	tests := []struct {
		name       string
		tool       string
		success    bool
		wantStatus string
	}{
		{name: "successful call", tool: "find_type", success: true, wantStatus: "success"},
		{name: "failed call", tool: "create_person", success: false, wantStatus: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := counterValue(t, RequestsTotal.WithLabelValues(tt.tool, tt.wantStatus))
			RecordRequest(tt.tool, 0.2, tt.success)
			after := counterValue(t, RequestsTotal.WithLabelValues(tt.tool, tt.wantStatus))
			if after != before+1 {
				t.Errorf("requests_total{%s,%s} = %v, want %v", tt.tool, tt.wantStatus, after, before+1)
			}
		})
	}
}

func TestRecordAPICall(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		wantLabel string
	}{
		{name: "ok", code: 200, wantLabel: "200"},
		{name: "not found", code: 404, wantLabel: "404"},
		{name: "transport error", code: 0, wantLabel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := GrampsAPIRequestsTotal.WithLabelValues("GET", "people/{handle}", tt.wantLabel)
			before := counterValue(t, c)
			RecordAPICall("GET", "people/{handle}", 0.05, tt.code)
			if counterValue(t, c) != before+1 {
				t.Errorf("expected code=%s counter to increment", tt.wantLabel)
			}
		})
	}
}

func TestRecordWrite(t *testing.T) {
	c := WriteOperations.WithLabelValues("person", "created", "success")
	before := counterValue(t, c)
	RecordWrite("person", "created", true)
	if counterValue(t, c) != before+1 {
		t.Error("expected write counter to increment")
	}
}

func TestRecordCacheAccess(t *testing.T) {
	initialHits := counterValue(t, CacheHits)
	initialMisses := counterValue(t, CacheMisses)

	RecordCacheAccess(true)
	if counterValue(t, CacheHits) != initialHits+1 {
		t.Error("expected cache hits to increment")
	}

	RecordCacheAccess(false)
	if counterValue(t, CacheMisses) != initialMisses+1 {
		t.Error("expected cache misses to increment")
	}
}

func TestSetCacheSize(t *testing.T) {
	var m dto.Metric

	SetCacheSize(100)
	if err := CacheSize.Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if m.Gauge.GetValue() != 100 {
		t.Errorf("expected cache size 100, got %v", m.Gauge.GetValue())
	}

	SetCacheSize(50)
	if err := CacheSize.Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if m.Gauge.GetValue() != 50 {
		t.Errorf("expected cache size 50, got %v", m.Gauge.GetValue())
	}
}

func TestNamespace(t *testing.T) {
	if Namespace != "gramps_mcp" {
		t.Errorf("expected namespace 'gramps_mcp', got '%s'", Namespace)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}
