package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestPostJSON_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["system_id"] != "smae_mx" {
			t.Errorf("unexpected body %v (%v)", body, err)
		}
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	status, err := PostJSON(context.Background(), srv.Client(), srv.URL, map[string]any{"system_id": "smae_mx"},
		RetryPolicy{Attempts: 3, Backoff: time.Millisecond})
	if err != nil || status != http.StatusAccepted {
		t.Fatalf("expected 202 after retries, got %d err=%v", status, err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}

func TestPostJSON_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	status, err := PostJSON(context.Background(), srv.Client(), srv.URL, map[string]any{}, RetryPolicy{Attempts: 5, Backoff: time.Millisecond})
	if status != http.StatusBadRequest || err == nil {
		t.Fatalf("expected 400 error, got %d err=%v", status, err)
	}
	if IsRetryableError(err) {
		t.Fatalf("400 must not be retryable")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single call, got %d", got)
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected cap at 10s, got %s", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 0); got != time.Second {
		t.Fatalf("expected fallback, got %s", got)
	}
}
