package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ---- test helpers ----

type fakeStatus struct{ running atomic.Bool }

func (f *fakeStatus) IsRunning() bool { return f.running.Load() }

func setupServer(t *testing.T, st StatusReporter, keys []string) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "matchalert_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	srv := NewServer(zap.NewNop(), st, reg)
	srv.MetricsKeys = keys
	// very high rate limits to avoid flakiness in tests
	ts := httptest.NewServer(srv.Router(10_000, 10_000))
	t.Cleanup(ts.Close)
	return ts
}

// ---- tests ----

func TestHealth_GetAndHead(t *testing.T) {
	st := &fakeStatus{}
	st.running.Store(true)
	ts := setupServer(t, st, nil)

	for _, path := range []string{"/health", "/", "/healthz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		var body healthResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || body.Status != "ok" || body.Scheduler != "running" {
			t.Fatalf("GET %s: code=%d body=%+v", path, resp.StatusCode, body)
		}

		resp, err = http.Head(ts.URL + path)
		if err != nil {
			t.Fatalf("HEAD %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("HEAD %s: code=%d", path, resp.StatusCode)
		}
	}
}

func TestHealth_ReportsStoppedScheduler(t *testing.T) {
	ts := setupServer(t, &fakeStatus{}, nil)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body healthResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || body.Scheduler != "stopped" {
		t.Fatalf("code=%d body=%+v", resp.StatusCode, body)
	}
}

func TestMetrics_Exposed(t *testing.T) {
	ts := setupServer(t, nil, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(b), "matchalert_test_total 1") {
		t.Fatalf("code=%d body=%s", resp.StatusCode, b)
	}
}

func TestMetrics_RequiresKeyWhenConfigured(t *testing.T) {
	ts := setupServer(t, nil, []string{"scrape"})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/metrics", nil)
	req.Header.Set("Authorization", "Bearer scrape")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200 with key, got %d", resp.StatusCode)
	}

	// health stays open
	resp, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health must not need a key, got %d", resp.StatusCode)
	}
}
