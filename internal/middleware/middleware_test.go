package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type staticKey string

func (k staticKey) Verify(p string) bool { return p == string(k) }

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAPIKey(t *testing.T) {
	h := APIKey(staticKey("secret"))(ok)

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"missing", "", http.StatusForbidden},
		{"wrong", "nope", http.StatusForbidden},
		{"right", "secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusForbidden {
				var body map[string]any
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body["code"] != "forbidden" {
					t.Errorf("code = %v", body["code"])
				}
			}
		})
	}
}

func TestLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Close()
	h := Limit(rl)(ok)

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/users", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// same host, different ports share a bucket
	if hit("10.0.0.1:1000") != http.StatusOK || hit("10.0.0.1:1001") != http.StatusOK {
		t.Fatal("burst should be allowed")
	}
	if got := hit("10.0.0.1:1002"); got != http.StatusTooManyRequests {
		t.Errorf("third request: %d", got)
	}
	if got := hit("10.0.0.2:1000"); got != http.StatusOK {
		t.Errorf("other client: %d", got)
	}
}

func TestGRPCRateLimit(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Close()
	ic := RateLimit(rl)

	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP("10.1.1.1"), Port: 5}})
	next := func(context.Context, any) (any, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	if _, err := ic(ctx, nil, info, next); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err := ic(ctx, nil, info, next)
	if status.Code(err) != codes.ResourceExhausted {
		t.Errorf("expected ResourceExhausted, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()
	rl.Allow("a")
	rl.sweep(-time.Second)
	rl.mu.Lock()
	n := len(rl.clients)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("clients after sweep = %d", n)
	}
}
