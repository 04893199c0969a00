package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"staybook/internal/bookings/service"
	apperrors "staybook/pkg/errors"
	httpx "staybook/pkg/http"
	"staybook/pkg/middleware"
	"staybook/pkg/model"
)

// Handler exposes the public booking API. Identity middleware has already
// authenticated the caller; every route scopes to the token's user.
type Handler struct {
	bookings *service.BookingService
}

func NewHandler(bookings *service.BookingService) *Handler {
	return &Handler{bookings: bookings}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.create)
	router.GET("/api/v1/bookings", h.list)
	router.GET("/api/v1/bookings/:id", h.get)
	router.DELETE("/api/v1/bookings/:id", h.cancel)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, apperrors.Unauthorized("Missing user identity"))
		return
	}

	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("invalid JSON body"))
		return
	}

	booking, err := h.bookings.Create(r.Context(), userID, &req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteCreated(w, booking)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, apperrors.Unauthorized("Missing user identity"))
		return
	}

	bookings, err := h.bookings.ListForUser(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteSuccess(w, bookings)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, apperrors.Unauthorized("Missing user identity"))
		return
	}

	booking, err := h.bookings.GetByID(r.Context(), userID, ps.ByName("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteSuccess(w, booking)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, apperrors.Unauthorized("Missing user identity"))
		return
	}

	booking, err := h.bookings.Cancel(r.Context(), userID, ps.ByName("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteSuccess(w, booking)
}
