package httpds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fastClient builds a client with near-zero backoff so retry tests stay fast.
func fastClient(retries int) *Client {
	c := NewClient(Config{
		MaxRetries:     retries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	c.sleep = func(time.Duration) {}
	return c
}

func TestGetRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	resp, err := fastClient(3).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Fatalf("body = %q", body)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGetExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := fastClient(2).Get(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("expected failure after retries")
	}
	if calls.Load() != 3 { // initial attempt + 2 retries
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := fastClient(3).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (4xx is final)", calls.Load())
	}
}

func TestDoHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fastClient(0).Do(ctx, http.MethodGet, "http://127.0.0.1:1/never", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestFetchFirstBytes(t *testing.T) {
	payload := "id;name\n1;alice\n2;bob\n"
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		// Ignore the Range header; the client must cap the result itself.
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()

	got, err := fastClient(0).FetchFirstBytes(context.Background(), srv.URL, 8)
	if err != nil {
		t.Fatalf("FetchFirstBytes: %v", err)
	}
	if string(got) != payload[:8] {
		t.Fatalf("peek = %q, want %q", got, payload[:8])
	}
	if gotRange != "bytes=0-7" {
		t.Errorf("Range header = %q", gotRange)
	}

	// A short body returns everything available.
	all, err := fastClient(0).FetchFirstBytes(context.Background(), srv.URL, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if string(all) != payload {
		t.Fatalf("peek = %q", all)
	}

	if _, err := fastClient(0).FetchFirstBytes(context.Background(), srv.URL, 0); err == nil {
		t.Error("n = 0 accepted")
	}
}

func TestURLSourceOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "a,b\n1,2\n")
	}))
	defer srv.Close()

	src := URLSource{Client: fastClient(0), URL: srv.URL}
	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "a,b\n1,2\n" {
		t.Fatalf("body = %q", body)
	}
}

func TestURLSourceOpenNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := URLSource{Client: fastClient(0), URL: srv.URL}
	if _, err := src.Open(context.Background()); err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v, want status error", err)
	}
}

func TestBackoffDuration(t *testing.T) {
	initial := 100 * time.Millisecond
	max := time.Second
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second}, // capped
		{63, time.Second},
	}
	for _, tc := range cases {
		if got := backoffDuration(initial, tc.attempt, max); got != tc.want {
			t.Errorf("attempt %d: %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
