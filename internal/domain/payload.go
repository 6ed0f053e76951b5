package domain

import (
	"bytes"
	"encoding/json"
)

// Клиентские payload'ы не валидируются: поля читаются "как получится",
// а на провод уходит ровно то, что прислал клиент.

// objectFields раскладывает JSON-объект по ключам. Не объект (строка, массив, null) даёт nil.
func objectFields(data []byte) map[string]json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	return obj
}

// looseString: строка как есть, null и отсутствие дают "", остальное даёт исходный JSON-текст (42 -> "42").
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func looseBool(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("true"))
}

func nonNull(raw json.RawMessage) json.RawMessage {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return nil
	}
	return raw
}

// UnmarshalJSON обязан копировать входной буфер, если хранит его.
func cloneRaw(data []byte) json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	return append(json.RawMessage(nil), data...)
}
