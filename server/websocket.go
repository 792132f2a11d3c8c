package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tulinowpavel/ticketgate"
)

// wsConn carries one JSON-RPC envelope per text frame.
type wsConn struct {
	conn *websocket.Conn
}

func (c wsConn) ReadMessage(_ context.Context) ([]byte, error) {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				return nil, io.EOF
			}
			return nil, err
		}

		if typ == websocket.TextMessage || typ == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c wsConn) WriteMessage(_ context.Context, data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered with an http error
		slog.WarnContext(ctx, "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	defer func() {
		if err := conn.Close(); err != nil {
			slog.DebugContext(ctx, "failed to close websocket", slog.String("error", err.Error()))
		}
	}()

	slog.InfoContext(ctx, "websocket connected", slog.String("remote", r.RemoteAddr))

	if err = ticketgate.NewConnection(wsConn{conn: conn}, s.dispatcher).Serve(ctx); err != nil {
		slog.WarnContext(ctx, "websocket closed with error", slog.String("error", err.Error()))
		return
	}

	slog.InfoContext(ctx, "websocket disconnected", slog.String("remote", r.RemoteAddr))
}
