package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds one frame write so a stalled client cannot wedge the
	// countdown goroutine behind it.
	writeWait = 10 * time.Second
	// readWait is generous: an attempt stream legitimately sits idle while
	// the student thinks about a question.
	readWait = 5 * time.Minute
)

// WriteTyped sends one typed event frame on the attempt stream.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse frame.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON decodes the next client frame, renewing the idle deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
