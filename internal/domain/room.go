package domain

import "time"

// RoomStats — снимок состояния комнаты для админских ручек.
type RoomStats struct {
	ID           string    `json:"id"`
	Members      int       `json:"members"`
	HistorySize  int       `json:"history_size"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
