package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"staybook/internal/hotel/service"
	apperrors "staybook/pkg/errors"
	httpx "staybook/pkg/http"
	"staybook/pkg/model"
)

// Handler exposes the catalog API and the internal lock RPC. The internal
// token middleware guards the confirm/release routes; everything else is
// open to the gateway.
type Handler struct {
	rooms *service.RoomService
	locks *service.LockService
}

func NewHandler(rooms *service.RoomService, locks *service.LockService) *Handler {
	return &Handler{rooms: rooms, locks: locks}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/hotels", h.createHotel)
	router.GET("/api/v1/hotels", h.listHotels)

	router.POST("/api/v1/rooms", h.createRoom)
	router.GET("/api/v1/rooms", h.listRooms)
	router.GET("/api/v1/rooms/:id", h.getRoom)
	router.GET("/api/v1/recommendations", h.recommend)

	router.POST("/api/v1/rooms/:id/confirm-availability", h.confirmAvailability)
	router.POST("/api/v1/rooms/:id/release", h.release)
}

func (h *Handler) createHotel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.HotelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("invalid JSON body"))
		return
	}

	hotel, err := h.rooms.CreateHotel(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteCreated(w, hotel)
}

func (h *Handler) listHotels(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	hotels, err := h.rooms.ListHotels(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteSuccess(w, hotels)
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("invalid JSON body"))
		return
	}

	room, err := h.rooms.CreateRoom(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteCreated(w, room)
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.rooms.ListRooms(r.Context(), r.URL.Query().Get("hotel_id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteSuccess(w, rooms)
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, err := h.rooms.GetRoom(r.Context(), ps.ByName("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteSuccess(w, room)
}

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	summaries, err := h.rooms.Recommend(r.Context(), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteSuccess(w, summaries)
}

func (h *Handler) confirmAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("invalid JSON body"))
		return
	}

	resp, err := h.locks.Confirm(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteSuccess(w, resp)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperrors.InvalidInput("invalid JSON body"))
		return
	}

	resp, err := h.locks.Release(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteSuccess(w, resp)
}
