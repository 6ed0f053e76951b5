package domain

import "encoding/json"

// Role — роль отправителя, как её прислал клиент. Сервер её не проверяет.
type Role string

const (
	RoleSinger   Role = "singer"
	RoleAudience Role = "audience"
	RoleSystem   Role = "system" // web-клиент так помечает карточки заявок на песню
)

// ChatMessage хранится в истории комнаты и пересылается всем участникам.
// Поля разобраны нестрого и нужны серверу только для ключа комнаты и логов;
// если сообщение пришло от клиента, на провод уходит Raw без изменений.
type ChatMessage struct {
	PerformanceID string          `json:"performanceId"`
	Author        string          `json:"author"`
	Message       string          `json:"message"`
	Timestamp     string          `json:"timestamp"`
	Type          Role            `json:"type"`
	AvatarConfig  json.RawMessage `json:"avatarConfig,omitempty"`
	IsRequest     bool            `json:"isRequest,omitempty"`
	RequestData   *RequestData    `json:"requestData,omitempty"`

	// Raw: payload клиента байт в байт. Пусто для сообщений, собранных в Go.
	Raw json.RawMessage `json:"-"`
}

type RequestData struct {
	Title    string `json:"title"`
	Username string `json:"username"`
}

// SongRequest только рассылается в комнату, в историю не попадает.
type SongRequest struct {
	PerformanceID string `json:"performanceId"`
	Title         string `json:"title"`
	Username      string `json:"username,omitempty"`
	Artist        string `json:"artist,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Room возвращает ключ комнаты, в которую адресовано событие.
func (m ChatMessage) Room() string { return m.PerformanceID }

func (r SongRequest) Room() string { return r.PerformanceID }

type chatMessageFields ChatMessage

func (m ChatMessage) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	return json.Marshal(chatMessageFields(m))
}

// UnmarshalJSON никогда не отказывает валидному JSON: несовпадение типов
// даёт строковое представление или пустое поле.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	obj := objectFields(data)
	*m = ChatMessage{
		PerformanceID: looseString(obj["performanceId"]),
		Author:        looseString(obj["author"]),
		Message:       looseString(obj["message"]),
		Timestamp:     looseString(obj["timestamp"]),
		Type:          Role(looseString(obj["type"])),
		AvatarConfig:  nonNull(obj["avatarConfig"]),
		IsRequest:     looseBool(obj["isRequest"]),
		Raw:           cloneRaw(data),
	}
	if rd := objectFields(obj["requestData"]); rd != nil {
		m.RequestData = &RequestData{
			Title:    looseString(rd["title"]),
			Username: looseString(rd["username"]),
		}
	}
	return nil
}

type songRequestFields SongRequest

func (r SongRequest) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(songRequestFields(r))
}

func (r *SongRequest) UnmarshalJSON(data []byte) error {
	obj := objectFields(data)
	*r = SongRequest{
		PerformanceID: looseString(obj["performanceId"]),
		Title:         looseString(obj["title"]),
		Username:      looseString(obj["username"]),
		Artist:        looseString(obj["artist"]),
		Raw:           cloneRaw(data),
	}
	return nil
}
