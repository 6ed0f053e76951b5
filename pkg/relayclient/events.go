package relayclient

import (
	"encoding/json"
	"fmt"

	"github.com/cwrk-planet/live-relay/internal/domain"
)

// Event — входящее событие релея. Заполнено ровно одно поле payload по Name.
type Event struct {
	Name    string
	History []domain.ChatMessage // load_history
	Message *domain.ChatMessage  // receive_message
	Song    *domain.SongRequest  // song_requested
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func decodeEvent(f frame) (Event, error) {
	ev := Event{Name: f.Event}
	switch f.Event {
	case domain.EventLoadHistory:
		ev.History = []domain.ChatMessage{}
		if err := json.Unmarshal(f.Data, &ev.History); err != nil {
			return ev, fmt.Errorf("%s: %w", f.Event, err)
		}
	case domain.EventReceiveMessage:
		ev.Message = new(domain.ChatMessage)
		if err := json.Unmarshal(f.Data, ev.Message); err != nil {
			return ev, fmt.Errorf("%s: %w", f.Event, err)
		}
	case domain.EventSongRequested:
		ev.Song = new(domain.SongRequest)
		if err := json.Unmarshal(f.Data, ev.Song); err != nil {
			return ev, fmt.Errorf("%s: %w", f.Event, err)
		}
	default:
		return ev, fmt.Errorf("%w: %q", domain.ErrUnknownEvent, f.Event)
	}
	return ev, nil
}
