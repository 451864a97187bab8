package control

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestStatusParsesPayload(t *testing.T) {
	srv := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/status" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"server_status": "ok",
			"process_info": {"running": true, "pid": 123},
			"login_stats": {"success_count": 3, "failed_count": 1, "retry_count": 0, "total_attempts": 4, "last_updated": "2026-01-02T10:00:00Z"},
			"timestamp": "2026-01-02T10:00:05Z"
		}`))
	}))

	client := New(testConfig())
	st, err := client.Status(context.Background(), srv)
	if err != nil {
		t.Fatal(err)
	}
	if st.ServerStatus != "ok" {
		t.Fatalf("unexpected server status: %q", st.ServerStatus)
	}
	if !st.Process.Running || st.Process.PID != 123 {
		t.Fatalf("unexpected process info: %+v", st.Process)
	}
	if st.Logins.TotalAttempts != 4 || st.Logins.SuccessCount != 3 {
		t.Fatalf("unexpected login stats: %+v", st.Logins)
	}

	if !strings.Contains(st.Summary(), "pid 123") {
		t.Fatalf("summary should include the PID: %q", st.Summary())
	}
}

func TestIsRunningDerivedFromStatus(t *testing.T) {
	var requestedPaths []string
	srv := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPaths = append(requestedPaths, r.URL.Path)
		w.Write([]byte(`{"process_info":{"running":true,"pid":123}}`))
	}))

	client := New(testConfig())
	running, err := client.IsRunning(context.Background(), srv)
	if err != nil {
		t.Fatal(err)
	}
	if !running {
		t.Fatal("expected running=true")
	}
	if len(requestedPaths) != 1 || requestedPaths[0] != "/status" {
		t.Fatalf("is_running must use the status endpoint, got %v", requestedPaths)
	}
}

func TestStatusMalformedPayloadDegradesToUnknown(t *testing.T) {
	srv := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))

	client := New(testConfig())
	st, err := client.Status(context.Background(), srv)
	if err != nil {
		t.Fatalf("malformed body must degrade, not fail: %v", err)
	}
	if st.ServerStatus != StatusUnknown {
		t.Fatalf("expected %q status, got %q", StatusUnknown, st.ServerStatus)
	}
}

func TestStatisticsSuccessRate(t *testing.T) {
	srv := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"login_stats":{"success_count":3,"failed_count":1,"total_attempts":4}}`))
	}))

	client := New(testConfig())
	stats, err := client.Statistics(context.Background(), srv)
	if err != nil {
		t.Fatal(err)
	}
	if stats.SuccessRate == nil {
		t.Fatal("expected a success rate")
	}
	if *stats.SuccessRate != 75.0 {
		t.Fatalf("expected 75.0, got %v", *stats.SuccessRate)
	}
	if !strings.Contains(stats.String(), "75.0%") {
		t.Fatalf("rendered statistics should include the rate: %q", stats.String())
	}
}

func TestStatisticsNoAttemptsOmitsRate(t *testing.T) {
	srv := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"login_stats":{"total_attempts":0}}`))
	}))

	client := New(testConfig())
	stats, err := client.Statistics(context.Background(), srv)
	if err != nil {
		t.Fatal(err)
	}
	if stats.SuccessRate != nil {
		t.Fatalf("expected no success rate for zero attempts, got %v", *stats.SuccessRate)
	}
	if strings.Contains(stats.String(), "%") {
		t.Fatalf("rendered statistics must not include a rate: %q", stats.String())
	}
}
