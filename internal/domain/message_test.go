package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChatMessage_BuiltInGoMarshalsFields(t *testing.T) {
	out, err := json.Marshal(ChatMessage{PerformanceID: "perf-1", Author: "SingerBot", Message: "hi", Type: RoleSinger})
	require.NoError(t, err)
	require.JSONEq(t, `{"performanceId":"perf-1","author":"SingerBot","message":"hi","timestamp":"","type":"singer"}`, string(out))
}

func TestChatMessage_DecodedIsLenientAndKeepsRaw(t *testing.T) {
	in := `{"performanceId":7,"author":null,"timestamp":1700000000,"isRequest":true,"requestData":{"title":"Creep","username":1},"extra":[1,2]}`
	var m ChatMessage
	require.NoError(t, json.Unmarshal([]byte(in), &m))

	require.Equal(t, "7", m.Room())
	require.Empty(t, m.Author)
	require.Equal(t, "1700000000", m.Timestamp)
	require.True(t, m.IsRequest)
	require.Equal(t, &RequestData{Title: "Creep", Username: "1"}, m.RequestData)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	require.JSONEq(t, in, string(out))
}

func TestJoinRequest_Lenient(t *testing.T) {
	var j JoinRequest
	require.NoError(t, json.Unmarshal([]byte(`{"performanceId":42,"userType":"singer"}`), &j))
	require.Equal(t, JoinRequest{PerformanceID: "42", UserType: RoleSinger}, j)

	require.NoError(t, json.Unmarshal([]byte(`[]`), &j))
	require.Equal(t, JoinRequest{}, j)
}
