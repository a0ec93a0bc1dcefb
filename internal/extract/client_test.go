package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"classsync/internal/schedule"
)

func TestExtractSkipModeReturnsValidRecords(t *testing.T) {
	c := New("", "", true)
	classes, err := c.Extract(context.Background(), "ignored", "image/png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(classes) == 0 {
		t.Fatal("skip mode must return records")
	}
	for i, raw := range classes {
		if res := schedule.Validate(raw); !res.Valid {
			t.Errorf("mock record %d fails validation: %v", i, res.Errors)
		}
	}
}

func TestExtractForwardsImageAndReturnsUntypedClasses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/extract" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["image"] != "aGVsbG8=" || body["mime_type"] != "image/png" {
			t.Errorf("request body = %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"classes":[{"day":"Monday"},"not an object"]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", false)
	classes, err := c.Extract(context.Background(), "aGVsbG8=", "image/png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("classes = %d, want 2 untyped records", len(classes))
	}
}

func TestExtractErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", false)
	if _, err := c.Extract(context.Background(), "aGVsbG8=", "image/png"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}
