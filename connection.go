package ticketgate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// MessageConn is a message-oriented transport such as a websocket. ReadMessage
// returns io.EOF once the peer has closed the connection.
type MessageConn interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
}

// Connection serves requests arriving on a MessageConn. Every message is
// dispatched in its own goroutine; responses may be written out of order.
type Connection struct {
	dispatcher *Dispatcher

	l sync.Mutex
	w MessageConn
}

func NewConnection(conn MessageConn, dispatcher *Dispatcher) *Connection {
	return &Connection{
		dispatcher: dispatcher,
		w:          conn,
	}
}

// Serve reads until the peer disconnects and waits for in-flight calls.
func (c *Connection) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		msg, err := c.w.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := c.ServeRaw(ctx, msg); err != nil {
				slog.WarnContext(ctx, "failed to write rpc response", slog.String("error", err.Error()))
			}
		}()
	}
}

func (c *Connection) ServeRaw(ctx context.Context, msg []byte) error {
	buf := bytes.Buffer{}
	if err := c.dispatcher.ServeRaw(ctx, &buf, msg); err != nil {
		return err
	}

	c.l.Lock()
	defer c.l.Unlock()

	return c.w.WriteMessage(ctx, buf.Bytes())
}
