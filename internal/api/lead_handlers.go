package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onedigit/site-engine/internal/models"
	"github.com/onedigit/site-engine/internal/notify"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is a frame pushed to lead stream subscribers
type StreamMessage struct {
	Type    string          `json:"type"`
	Kind    models.LeadKind `json:"kind,omitempty"`
	Subject string          `json:"subject,omitempty"`
	Lead    *models.Lead    `json:"lead,omitempty"`
	Data    string          `json:"data,omitempty"`
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	filters := models.LeadFilters{
		Kind:   models.LeadKind(r.URL.Query().Get("kind")),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}

	switch filters.Kind {
	case "", models.LeadAssessment, models.LeadContact:
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "kind must be assessment or contact")
		return
	}

	leads, err := s.leads.ListLeads(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list leads", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list leads")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"leads":  leads,
		"total":  len(leads),
		"limit":  filters.Limit,
		"offset": filters.Offset,
	})
}

// handleLeadStream pushes every new lead notification to a websocket client
func (s *Server) handleLeadStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "lead stream not enabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe()
	defer sub.Close()

	client := clientName(r)
	slog.Info("lead stream connected", "client", client, "subscribers", s.hub.Subscribers())

	if err := sendStreamMessage(conn, StreamMessage{Type: "connected", Data: "subscribed to lead notifications"}); err != nil {
		return
	}

	// The read loop only handles control frames and detects disconnects
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			slog.Info("lead stream disconnected", "client", client)
			return
		case <-r.Context().Done():
			return
		case n, ok := <-sub.C:
			if !ok {
				slog.Info("lead stream closed by server", "client", client)
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(streamWriteWait))
				return
			}
			if err := sendStreamMessage(conn, leadMessage(n)); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func leadMessage(n *notify.Notification) StreamMessage {
	return StreamMessage{
		Type:    "lead",
		Kind:    n.Kind,
		Subject: n.Subject,
		Lead:    n.Lead,
	}
}

func sendStreamMessage(conn *websocket.Conn, msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal stream message", "error", err)
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send stream message", "error", err)
		return err
	}
	return nil
}
