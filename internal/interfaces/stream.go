package interfaces

import "net/http"

// StreamHub рассылает события всем подключенным websocket-клиентам.
type StreamHub interface {
	Broadcast(msg []byte)
	ServeWS(w http.ResponseWriter, r *http.Request)
	Clients() int
	Close()
}
