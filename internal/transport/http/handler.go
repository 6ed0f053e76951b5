package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/live-relay/internal/domain"
	"github.com/cwrk-planet/live-relay/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// RoomReader — read-only доступ к реестру для админских ручек.
type RoomReader interface {
	Rooms() []domain.RoomStats
	Stats(id string) (domain.RoomStats, error)
	Lookup(id string) ([]domain.ChatMessage, error)
	Len() int
}

type Handler struct {
	rooms RoomReader
}

func NewHandler(rooms RoomReader) *Handler {
	return &Handler{rooms: rooms}
}

// GET /rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	items := h.rooms.Rooms()
	httputil.OK(w, RoomsListResponse{Items: items, Total: len(items)})
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.rooms.Stats(id)
	if err != nil {
		h.fail(w, r, "handler.GetRoom", err)
		return
	}
	httputil.OK(w, st)
}

// GET /rooms/{id}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	items, err := h.rooms.Lookup(id)
	if err != nil {
		h.fail(w, r, "handler.GetHistory", err)
		return
	}
	httputil.OK(w, HistoryResponse{RoomID: id, Items: items})
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"status": "ok", "rooms": h.rooms.Len()})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, domain.ErrRoomNotFound) {
		httputil.Error(r.Context(), w, http.StatusNotFound, "room not found", map[string]any{"room_id": chi.URLParam(r, "id")})
		return
	}
	slog.Error(op, slog.Any("err", err))
	httputil.Error(r.Context(), w, http.StatusInternalServerError, err.Error(), nil)
}
