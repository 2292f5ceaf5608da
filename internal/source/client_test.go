package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// testRetryPolicy keeps backoff delays tiny so tests run fast.
func testRetryPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestGetJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewClient(WithRetryPolicy(testRetryPolicy(5)))

	var result struct {
		OK bool `json:"ok"`
	}
	if err := c.GetJSON(context.Background(), server.URL, nil, &result); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if !result.OK {
		t.Error("result.OK = false, want true")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestGetJSON_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(WithRetryPolicy(testRetryPolicy(5)))

	var result any
	err := c.GetJSON(context.Background(), server.URL, nil, &result)
	if err == nil {
		t.Fatal("GetJSON succeeded, want error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusServiceUnavailable)
	}
	if got := calls.Load(); got != 5 {
		t.Errorf("server calls = %d, want 5", got)
	}
}

func TestGetJSON_RetriesRequestTimeouts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			time.Sleep(200 * time.Millisecond)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewClient(
		WithTimeout(20*time.Millisecond),
		WithRetryPolicy(testRetryPolicy(5)),
	)

	var result struct {
		OK bool `json:"ok"`
	}
	if err := c.GetJSON(context.Background(), server.URL, nil, &result); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if !result.OK {
		t.Error("result.OK = false, want true")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3 (timeouts retried)", got)
	}
}

func TestGetJSON_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(WithRetryPolicy(testRetryPolicy(5)))

	var result any
	err := c.GetJSON(context.Background(), server.URL, nil, &result)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1 (no retries on 404)", got)
	}
}

func TestGetJSON_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(WithRetryPolicy(testRetryPolicy(5)))

	var result any
	err := c.GetJSON(context.Background(), server.URL, nil, &result)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.IsRetryable() {
		t.Error("IsRetryable() = true for 400, want false")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestGetJSON_QueryParameters(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(WithRetryPolicy(testRetryPolicy(1)))

	q := map[string][]string{
		"status":        {"open"},
		"series_ticker": {"KXNBAMVP"},
	}
	var result any
	if err := c.GetJSON(context.Background(), server.URL, q, &result); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if gotQuery != "series_ticker=KXNBAMVP&status=open" {
		t.Errorf("query = %q, want %q", gotQuery, "series_ticker=KXNBAMVP&status=open")
	}
}

func TestRetryPolicy_DelayCap(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts:  4,
		InitialDelay: 2 * time.Millisecond,
		Multiplier:   10,
		MaxDelay:     4 * time.Millisecond,
	}

	var attempts int
	start := time.Now()
	err := p.Do(context.Background(), func() error {
		attempts++
		return &APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}
	})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Do succeeded, want error")
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
	// Delays: 2ms, then capped at 4ms twice = 10ms total. Uncapped the
	// second delay alone would be 20ms.
	if elapsed > 100*time.Millisecond {
		t.Errorf("elapsed = %v, backoff cap not applied", elapsed)
	}
}

func TestRetryPolicy_ContextCancellation(t *testing.T) {
	p := testRetryPolicy(5)

	ctx, cancel := context.WithCancel(context.Background())

	var attempts int
	err := p.Do(ctx, func() error {
		attempts++
		cancel()
		return &APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
