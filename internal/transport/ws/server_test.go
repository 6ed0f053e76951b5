package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/live-relay/internal/domain"
	"github.com/cwrk-planet/live-relay/internal/relay"
	"github.com/cwrk-planet/live-relay/internal/room"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type testFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestRelay(t *testing.T, policy relay.JoinPolicy) (*httptest.Server, *room.Registry) {
	t.Helper()
	reg := room.NewRegistry(room.DefaultHistoryLimit)
	srv := NewServer(relay.NewDispatcher(reg), Options{Policy: policy, PingInterval: time.Second})

	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	return ts, reg
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func read(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f testFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	var f testFrame
	err := conn.ReadJSON(&f)
	require.Error(t, err, "unexpected frame %s %s", f.Event, string(f.Data))
}

func joinRoom(t *testing.T, conn *websocket.Conn, perf, user string) []domain.ChatMessage {
	t.Helper()
	send(t, conn, domain.EventJoinRoom, domain.JoinRequest{PerformanceID: perf, Username: user, UserType: domain.RoleAudience})
	f := read(t, conn)
	require.Equal(t, domain.EventLoadHistory, f.Event)

	var history []domain.ChatMessage
	require.NoError(t, json.Unmarshal(f.Data, &history))
	return history
}

func TestWS_JoinEmptyRoomReceivesEmptyHistory(t *testing.T) {
	ts, _ := newTestRelay(t, relay.PolicyLeavePrevious)
	conn := dial(t, ts)

	send(t, conn, domain.EventJoinRoom, domain.JoinRequest{PerformanceID: "perf-1", Username: "alice"})
	f := read(t, conn)
	require.Equal(t, domain.EventLoadHistory, f.Event)
	require.JSONEq(t, `[]`, string(f.Data))
}

func TestWS_ScenarioHistoryReplayAndBroadcast(t *testing.T) {
	ts, _ := newTestRelay(t, relay.PolicyLeavePrevious)

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		c := dial(t, ts)
		require.Empty(t, joinRoom(t, c, "perf-1", fmt.Sprintf("user-%d", i)))
		conns = append(conns, c)
	}

	for i, text := range []string{"A", "B", "C"} {
		send(t, conns[i], domain.EventSendMessage, domain.ChatMessage{
			PerformanceID: "perf-1", Author: fmt.Sprintf("user-%d", i), Message: text,
			Timestamp: "10:00 PM", Type: domain.RoleAudience,
		})
		// у всех трёх одно и то же сообщение, включая отправителя
		for _, c := range conns {
			f := read(t, c)
			require.Equal(t, domain.EventReceiveMessage, f.Event)
			require.Contains(t, string(f.Data), `"message":"`+text+`"`)
		}
	}

	late := dial(t, ts)
	history := joinRoom(t, late, "perf-1", "late")
	require.Len(t, history, 3)
	require.Equal(t, []string{"A", "B", "C"},
		[]string{history[0].Message, history[1].Message, history[2].Message})

	send(t, late, domain.EventSendMessage, domain.ChatMessage{PerformanceID: "perf-1", Author: "late", Message: "D"})
	for _, c := range append(conns, late) {
		f := read(t, c)
		require.Equal(t, domain.EventReceiveMessage, f.Event)
		var m domain.ChatMessage
		require.NoError(t, json.Unmarshal(f.Data, &m))
		require.Equal(t, "D", m.Message)
	}
}

func TestWS_SongRequestIsolatedAndNotReplayed(t *testing.T) {
	ts, _ := newTestRelay(t, relay.PolicyLeavePrevious)
	singer := dial(t, ts)
	fan := dial(t, ts)
	elsewhere := dial(t, ts)
	joinRoom(t, singer, "perf-1", "singer")
	joinRoom(t, fan, "perf-1", "fan")
	joinRoom(t, elsewhere, "perf-2", "other")

	send(t, fan, domain.EventSongRequested, map[string]string{"performanceId": "perf-1", "title": "Hallelujah", "username": "fan"})
	for _, c := range []*websocket.Conn{singer, fan} {
		f := read(t, c)
		require.Equal(t, domain.EventSongRequested, f.Event)
		require.JSONEq(t, `{"performanceId":"perf-1","title":"Hallelujah","username":"fan"}`, string(f.Data))
	}
	expectSilence(t, elsewhere)

	late := dial(t, ts)
	require.Empty(t, joinRoom(t, late, "perf-1", "late"))
}

func TestWS_MalformedFramesAreIgnored(t *testing.T) {
	ts, _ := newTestRelay(t, relay.PolicyLeavePrevious)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	send(t, conn, "typing", map[string]string{"performanceId": "perf-1"})

	// подключение живо и продолжает обслуживаться
	require.Empty(t, joinRoom(t, conn, "perf-1", "alice"))
}

func TestWS_DisconnectRemovesMembershipKeepsHistory(t *testing.T) {
	ts, reg := newTestRelay(t, relay.PolicyLeavePrevious)
	a := dial(t, ts)
	b := dial(t, ts)
	joinRoom(t, a, "perf-1", "a")
	joinRoom(t, b, "perf-1", "b")

	send(t, a, domain.EventSendMessage, domain.ChatMessage{PerformanceID: "perf-1", Author: "a", Message: "bye"})
	read(t, a)
	read(t, b)

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return len(reg.Members("perf-1")) == 1 }, 2*time.Second, 10*time.Millisecond)

	send(t, b, domain.EventSendMessage, domain.ChatMessage{PerformanceID: "perf-1", Author: "b", Message: "still here"})
	f := read(t, b)
	require.Equal(t, domain.EventReceiveMessage, f.Event)
	require.Len(t, reg.History("perf-1"), 2)
}

func TestWS_RejoinLeavesPreviousRoom(t *testing.T) {
	ts, reg := newTestRelay(t, relay.PolicyLeavePrevious)
	x := dial(t, ts)
	other := dial(t, ts)
	joinRoom(t, x, "perf-1", "x")
	joinRoom(t, x, "perf-2", "x")

	send(t, other, domain.EventSendMessage, domain.ChatMessage{PerformanceID: "perf-1", Author: "o", Message: "to perf-1"})
	expectSilence(t, x)
	require.Empty(t, reg.Members("perf-1"))
	require.Len(t, reg.Members("perf-2"), 1)
}

func TestWS_RejoinAdditiveKeepsBothRooms(t *testing.T) {
	ts, _ := newTestRelay(t, relay.PolicyAdditive)
	x := dial(t, ts)
	other := dial(t, ts)
	joinRoom(t, x, "perf-1", "x")
	joinRoom(t, x, "perf-2", "x")

	send(t, other, domain.EventSendMessage, domain.ChatMessage{PerformanceID: "perf-1", Author: "o", Message: "to perf-1"})
	f := read(t, x)
	require.Equal(t, domain.EventReceiveMessage, f.Event)
}

func TestOriginChecker(t *testing.T) {
	open := originChecker(nil)
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "http://evil.example")
	require.True(t, open(r))

	strict := originChecker([]string{"http://localhost:3000"})
	require.False(t, strict(r))

	r.Header.Set("Origin", "http://LOCALHOST:3000")
	require.True(t, strict(r))
}

func TestWS_CloseAllDropsClients(t *testing.T) {
	reg := room.NewRegistry(room.DefaultHistoryLimit)
	srv := NewServer(relay.NewDispatcher(reg), Options{PingInterval: time.Second})
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)

	conn := dial(t, ts)
	joinRoom(t, conn, "perf-1", "alice")
	require.Equal(t, 1, srv.Active())

	require.Equal(t, 1, srv.CloseAll())
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	require.Eventually(t, func() bool { return srv.Active() == 0 && len(reg.Members("perf-1")) == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestWS_ChatPayloadRelayedAsSent(t *testing.T) {
	ts, _ := newTestRelay(t, relay.PolicyLeavePrevious)
	a := dial(t, ts)
	b := dial(t, ts)
	joinRoom(t, a, "perf-1", "a")
	joinRoom(t, b, "perf-1", "b")

	payload := `{"performanceId":"perf-1","author":"a","message":"hi","timestamp":1700000000,"type":"audience","id":"m-1","avatarConfig":{"hair":3}}`
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"event":"send_message","data":`+payload+`}`)))
	for _, c := range []*websocket.Conn{a, b} {
		f := read(t, c)
		require.Equal(t, domain.EventReceiveMessage, f.Event)
		require.JSONEq(t, payload, string(f.Data))
	}

	late := dial(t, ts)
	send(t, late, domain.EventJoinRoom, map[string]any{"performanceId": "perf-1"})
	f := read(t, late)
	require.Equal(t, domain.EventLoadHistory, f.Event)
	require.JSONEq(t, `[`+payload+`]`, string(f.Data))
}
