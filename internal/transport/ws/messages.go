package ws

import "encoding/json"

// Frame — конверт входящего сообщения: {"event": "...", "data": {...}}.
// Имена событий см. domain.Event*.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// исходящий конверт, data сериализуется как есть
type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
