package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"tribunal/contexts/governance/consensus-engine/ports"
	"tribunal/internal/platform/messaging"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	streamBuffer       = 128
	streamPingInterval = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleEventStream forwards bus events to a websocket client. The optional
// topic query parameter narrows the stream to one event type.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeConsensusError(w, http.StatusServiceUnavailable, "stream_unavailable", "event stream is not enabled")
		return
	}
	// Counted before the upgrade; Shutdown waits once the http server drained.
	s.streams.Add(1)
	defer s.streams.Done()

	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		topic = messaging.AllTopics
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			"event", "event_stream_upgrade_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(s.streamCtx)
	defer cancel()

	msgs := make(chan ports.EventEnvelope, streamBuffer)
	done := s.events.Subscribe(ctx, topic, "event-stream", func(_ context.Context, event ports.EventEnvelope) error {
		select {
		case msgs <- event:
		default:
		}
		return nil
	})

	s.logger.Info("event stream opened",
		"event", "event_stream_opened",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"topic", topic,
		"caller", callerFromRequest(r).Address,
	)

	// Reader: drains control frames and notices client disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.streamCtx.Err() != nil {
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(streamWriteTimeout),
				)
			}
			<-done
			return
		case event := <-msgs:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				cancel()
				<-done
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				<-done
				return
			}
		}
	}
}
