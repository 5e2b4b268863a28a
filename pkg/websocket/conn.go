package websocket

import (
	"net/http"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Application close codes sent to clients before the connection is dropped.
const (
	CloseMissingToken     = 4000
	CloseInvalidToken     = 4001
	CloseMissingReceiver  = 4003
	CloseReceiverNotFound = 4004
)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Conn is the subset of *gorilla/websocket.Conn used by the pumps.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Upgrade upgrades an HTTP request to a WebSocket connection.
func Upgrade(w http.ResponseWriter, r *http.Request) (*gorillawebsocket.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}

// CloseWithCode sends a close frame carrying code and closes the connection.
func CloseWithCode(conn Conn, code int, reason string) error {
	msg := gorillawebsocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(gorillawebsocket.CloseMessage, msg, time.Now().Add(writeWait))
	return conn.Close()
}

// Serve registers client with the hub and pumps messages until the connection
// drops. Inbound text frames are handed to onMessage; a nil onMessage discards
// them. Serve blocks until the read side ends and always unregisters client.
func Serve(hub *Hub, client *Client, conn Conn, onMessage func(data []byte)) {
	hub.Register(client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(client, conn)
	}()

	readPump(conn, onMessage)

	hub.Unregister(client)
	<-done
	conn.Close()
}

func readPump(conn Conn, onMessage func(data []byte)) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if onMessage != nil {
			onMessage(message)
		}
	}
}

func writePump(client *Client, conn Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(gorillawebsocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
				// Unblock the reader so Serve can return.
				conn.Close()
				drain(client.Send)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				conn.Close()
				drain(client.Send)
				return
			}
		}
	}
}

func drain(ch <-chan []byte) {
	for range ch {
	}
}
