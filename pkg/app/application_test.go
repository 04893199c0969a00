package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"staybook/pkg/client"
	"staybook/pkg/config"
	"staybook/pkg/logger"
	"staybook/pkg/middleware"
)

const testSecret = "app-test-secret"

// echoHandler writes the authenticated user id back so tests can tell whose
// response a replay served.
type echoHandler struct {
	calls *int32
}

func (h echoHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		atomic.AddInt32(h.calls, 1)
		userID, _ := middleware.UserIDFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"user_id":"` + userID + `"}}`))
	})
}

func testConfig(rateLimit int) *config.Config {
	return &config.Config{
		Port:              "8080",
		JWTSecret:         testSecret,
		RateLimitRequests: rateLimit,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1 << 20,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
		Log:               logger.New(logger.Config{Level: "error", Format: "text", Output: io.Discard}),
		Client:            client.NewClient(),
	}
}

// newTestStack assembles the full middleware stack the way the bookings
// service does, with identity as the service middleware.
func newTestStack(t *testing.T, cfg *config.Config, calls *int32) http.Handler {
	t.Helper()
	a := NewApplication(cfg)
	a.SetApp(echoHandler{calls: calls}, middleware.Identity(cfg.JWTSecret))
	t.Cleanup(func() {
		a.limiter.Stop()
		a.idempotency.Stop()
	})
	return a.server.Handler
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func postBooking(h http.Handler, token, idempotencyKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idempotencyKey != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, idempotencyKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotentReplayRequiresAuthentication(t *testing.T) {
	var calls int32
	h := newTestStack(t, testConfig(100), &calls)

	first := postBooking(h, signToken(t, "user-a"), "key-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 for authenticated request, got %d", first.Code)
	}

	// Same key, no credentials: the auth layer must answer before any
	// cached response can be consulted.
	second := postBooking(h, "", "key-1")
	if second.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", second.Code)
	}
	if strings.Contains(second.Body.String(), "user-a") {
		t.Errorf("cached response leaked to unauthenticated caller: %s", second.Body.String())
	}
	if second.Header().Get("X-Idempotency-Replay") != "" {
		t.Error("unauthenticated request must not be served a replay")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected handler to run once, ran %d times", got)
	}
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	var calls int32
	h := newTestStack(t, testConfig(100), &calls)

	first := postBooking(h, signToken(t, "user-a"), "shared-key")
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := postBooking(h, signToken(t, "user-b"), "shared-key")
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", second.Code)
	}
	if !strings.Contains(second.Body.String(), "user-b") {
		t.Errorf("expected user-b's own response, got %s", second.Body.String())
	}
	if second.Header().Get("X-Idempotency-Replay") != "" {
		t.Error("another user's key must not replay")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected handler to run twice, ran %d times", got)
	}

	// The submitting user does replay.
	third := postBooking(h, signToken(t, "user-a"), "shared-key")
	if third.Header().Get("X-Idempotency-Replay") != "true" {
		t.Error("expected replay for the original user")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("replay must not reach the handler, ran %d times", got)
	}
}

func TestRateLimitIsKeyedByAuthenticatedUser(t *testing.T) {
	var calls int32
	h := newTestStack(t, testConfig(1), &calls)

	// Two users behind the same address each get their own budget.
	if rec := postBooking(h, signToken(t, "user-a"), ""); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for user-a, got %d", rec.Code)
	}
	if rec := postBooking(h, signToken(t, "user-b"), ""); rec.Code != http.StatusCreated {
		t.Errorf("expected 201 for user-b, got %d", rec.Code)
	}

	if rec := postBooking(h, signToken(t, "user-a"), ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for user-a's second request, got %d", rec.Code)
	}
}
