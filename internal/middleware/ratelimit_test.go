package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		remoteAddr string
		want       string
	}{
		{name: "forwarded header ignored", header: "203.0.113.1", remoteAddr: "198.51.100.10:1234", want: "198.51.100.10"},
		{name: "forwarded chain ignored", header: " 203.0.113.1 , 198.51.100.2 ", remoteAddr: "198.51.100.10:1234", want: "198.51.100.10"},
		{name: "ipv6 remote", remoteAddr: net.JoinHostPort("2001:db8::2", "443"), want: "2001:db8::2"},
		{name: "remote without port", remoteAddr: "203.0.113.1", want: "203.0.113.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.header != "" {
				req.Header.Set("X-Forwarded-For", tc.header)
			}
			if got := ClientIP(req); got != tc.want {
				t.Fatalf("ClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFixedWindowResets(t *testing.T) {
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	fw := newFixedWindow(2, time.Minute)
	fw.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		if ok, _ := fw.allow("k"); !ok {
			t.Fatalf("hit %d rejected", i+1)
		}
	}
	ok, wait := fw.allow("k")
	if ok || wait != time.Minute {
		t.Fatalf("third hit = %v, wait %s", ok, wait)
	}
	if ok, _ := fw.allow("other"); !ok {
		t.Fatal("independent key rejected")
	}

	clock = clock.Add(time.Minute + time.Second)
	if ok, _ := fw.allow("k"); !ok {
		t.Fatal("hit after window rejected")
	}
	if len(fw.windows) != 1 {
		t.Fatalf("expired windows not swept: %d left", len(fw.windows))
	}
}

func TestRateLimitKeysByUser(t *testing.T) {
	h := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	send := func(addr, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/predict_impact", nil)
		req.RemoteAddr = addr
		if user != "" {
			req = req.WithContext(ContextWithUserID(req.Context(), user))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := send("198.51.100.1:1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("first anonymous = %d", rr.Code)
	}
	rr := send("198.51.100.1:2", "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("second anonymous = %d retry=%q", rr.Code, rr.Header().Get("Retry-After"))
	}
	if rr := send("198.51.100.1:3", "user-1"); rr.Code != http.StatusNoContent {
		t.Fatalf("authenticated caller on same ip = %d", rr.Code)
	}
}
