package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"staybook/pkg/config"
	"staybook/pkg/contracts"
	"staybook/pkg/middleware"
)

// Application owns the HTTP server lifecycle shared by both services: route
// mounting, the middleware stack, and graceful shutdown.
type Application struct {
	cfg         *config.Config
	router      *httprouter.Router
	server      *http.Server
	idempotency middleware.IdempotencyStore
	limiter     *middleware.RateLimiter
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{
		cfg:    cfg,
		router: httprouter.New(),
	}
}

// SetApp mounts the service handler and assembles the middleware stack.
// Recovery sits outermost so a panic anywhere below still yields a 500. The
// rate limiter and the idempotency replay sit inside the service's own
// middleware (identity, internal token): a cached response is never served
// to a caller the auth layer has not admitted, and limiting sees the
// verified user id.
func (a *Application) SetApp(handler contracts.Handler, extra ...func(http.Handler) http.Handler) {
	handler.RegisterRoutes(a.router)
	a.registerHealthRoutes()

	a.idempotency = a.newIdempotencyStore()
	a.limiter = middleware.NewRateLimiter(a.cfg.RateLimitRequests, a.cfg.RateLimitWindow)

	var h http.Handler = a.router
	h = middleware.Idempotency(a.idempotency)(h)
	h = a.limiter.Middleware(h)
	for i := len(extra) - 1; i >= 0; i-- {
		h = extra[i](h)
	}
	h = middleware.RequestTimeout(a.cfg.RequestTimeout)(h)
	h = maxRequestSize(a.cfg.MaxRequestSize)(h)
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      h,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}
}

func (a *Application) newIdempotencyStore() middleware.IdempotencyStore {
	if a.cfg.Client.Redis != nil {
		a.cfg.Log.Info("Using Redis idempotency store")
		return middleware.NewRedisIdempotencyStore(a.cfg.Client.Redis, a.cfg.IdempotencyTTL, a.cfg.Log)
	}
	return middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
}

func maxRequestSize(limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, int64(limit))
			next.ServeHTTP(w, r)
		})
	}
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (a *Application) Run() {
	log := a.cfg.Log

	go func() {
		log.Info("Server listening", "port", a.cfg.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", "error", err)
	}

	a.limiter.Stop()
	a.idempotency.Stop()
	a.cfg.GracefulShutdown()
	log.Info("Server stopped")
}
