package http

import "github.com/cwrk-planet/live-relay/internal/domain"

type RoomsListResponse struct {
	Items []domain.RoomStats `json:"items"`
	Total int                `json:"total"`
}

type HistoryResponse struct {
	RoomID string               `json:"room_id"`
	Items  []domain.ChatMessage `json:"items"`
}
