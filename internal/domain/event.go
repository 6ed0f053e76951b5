package domain

// Имена событий протокола. Совпадают с тем, что шлёт web-клиент.
const (
	EventJoinRoom       = "join_room"
	EventLoadHistory    = "load_history"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventSongRequested  = "song_requested"
)

// Event — то, что диспетчер кладёт в исходящую очередь участника.
type Event struct {
	Name string
	Data any
}
