package hub

import (
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
)

// AttachOptions configure a websocket attachment.
type AttachOptions struct {
	// Session filters delivery to one generation run. Empty receives
	// everything.
	Session string

	// Backlog is written to the connection before live delivery starts,
	// letting a late subscriber catch up on an in-flight run.
	Backlog [][]byte
}

var pongMessage = []byte(`{"type":"pong"}`)

// ServeConn attaches a websocket connection to the hub and blocks until
// the connection closes. Inbound pings are answered with pongs; any other
// inbound message is relayed verbatim to all subscribers. All writes to
// the connection happen on the calling goroutine.
func (h *Hub) ServeConn(conn *websocket.Conn, opts AttachOptions) {
	sub := h.Subscribe(opts.Session)
	defer h.Unsubscribe(sub.ID)
	defer conn.Close()

	pong := make(chan struct{}, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var probe struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &probe) == nil && probe.Type == "ping" {
				select {
				case pong <- struct{}{}:
				default:
				}
				continue
			}
			h.Publish(Envelope{Data: data})
		}
	}()

	for _, msg := range opts.Backlog {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Debug("hub: backlog write", "err", err)
			return
		}
	}

	for {
		select {
		case env, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, env.Data); err != nil {
				return
			}
		case <-pong:
			if err := conn.WriteMessage(websocket.TextMessage, pongMessage); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
