package httpmiddleware

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestTokenBucketExhausts(t *testing.T) {
	l := NewTokenBucket(3, 3)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v, want admitted", i+1, ok, err)
		}
	}
	ok, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("fourth request should be rejected")
	}
}

func TestTokenBucketKeysAreIndependent(t *testing.T) {
	l := NewTokenBucket(1, 1)
	ctx := context.Background()
	if ok, _ := l.Allow(ctx, "a"); !ok {
		t.Fatal("first request for a should pass")
	}
	if ok, _ := l.Allow(ctx, "a"); ok {
		t.Fatal("second request for a should be rejected")
	}
	if ok, _ := l.Allow(ctx, "b"); !ok {
		t.Fatal("b must not share a's counter")
	}
}

func TestClientIdentityHeaderPriority(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "forwarded-for wins and takes first hop",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1", "X-Real-Ip": "198.51.100.1"},
			remote:  "10.0.0.2:1234",
			want:    "203.0.113.9",
		},
		{
			name:    "real-ip when forwarded-for absent",
			headers: map[string]string{"X-Real-Ip": "198.51.100.1"},
			remote:  "10.0.0.2:1234",
			want:    "198.51.100.1",
		},
		{
			name:    "cf header third",
			headers: map[string]string{"Cf-Connecting-Ip": "192.0.2.7"},
			remote:  "10.0.0.2:1234",
			want:    "192.0.2.7",
		},
		{
			name:   "socket address fallback",
			remote: "10.0.0.2:1234",
			want:   "10.0.0.2",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/v1/sync", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIdentity(r); got != tc.want {
				t.Fatalf("ClientIdentity = %q, want %q", got, tc.want)
			}
		})
	}
}
