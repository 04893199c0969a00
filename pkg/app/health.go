package app

import (
	"context"
	"net/http"
	"time"

	httpx "staybook/pkg/http"
)

type healthStatus struct {
	Status string `json:"status"`
	Mongo  string `json:"mongo"`
}

func (a *Application) registerHealthRoutes() {
	a.router.HandlerFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	a.router.HandlerFunc(http.MethodGet, "/readyz", func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Mongo: "ok"}
		code := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.cfg.Client.Mongo.Ping(ctx, nil); err != nil {
			status.Status = "degraded"
			status.Mongo = err.Error()
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, status)
	})
}
