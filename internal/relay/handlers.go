package relay

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/prasetya/voicerelay/internal/config"
	"github.com/prasetya/voicerelay/internal/metrics"
	"github.com/prasetya/voicerelay/internal/session"
)

// Handler serves the WebSocket endpoint and the session query API.
type Handler struct {
	cfg    *config.Config
	store  *session.Store
	dialer Dialer
	logger *zap.Logger

	upgrader websocket.Upgrader
}

// NewHandler builds a Handler that dials the upstream with the default
// gorilla dialer.
func NewHandler(cfg *config.Config, store *session.Store, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:    cfg,
		store:  store,
		dialer: websocket.DefaultDialer,
		logger: logger,
		// Browser clients connect from arbitrary origins.
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// SetDialer overrides the upstream dialer. Used by tests.
func (h *Handler) SetDialer(d Dialer) {
	h.dialer = d
}

// Register installs the relay endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/api/session", h.ServeSession)
	mux.HandleFunc("/api/transcripts", h.ServeTranscripts)
}

// ServeWS upgrades a client connection and bridges it upstream. The
// connection_id query parameter names the session; a fresh ULID is
// assigned when it is absent.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientWS, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := r.URL.Query().Get("connection_id")
	if id == "" {
		id = ulid.Make().String()
	}

	bridge := NewBridge(clientWS, id, h.cfg, h.store, h.dialer, h.logger)
	metrics.BridgesTotal.Inc()
	h.logger.Info("client connected", zap.String("session_id", bridge.ID))

	if err := bridge.DialUpstream(); err != nil {
		h.logger.Warn("upstream dial failed", zap.String("session_id", bridge.ID), zap.Error(err))
		bridge.Close()
		return
	}

	metrics.ActiveBridges.Inc()
	go h.pumpClient(bridge, clientWS)
}

// pumpClient reads client frames until the socket closes: binary frames
// are audio, text frames are control events.
func (h *Handler) pumpClient(bridge *Bridge, clientWS *websocket.Conn) {
	defer func() {
		bridge.Close()
		metrics.ActiveBridges.Dec()
	}()

	for {
		messageType, data, err := clientWS.ReadMessage()
		if err != nil {
			metrics.RelayErrorsTotal.WithLabelValues("client_read").Inc()
			h.logger.Debug("client read ended", zap.String("session_id", bridge.ID), zap.Error(err))
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if err := bridge.HandleAudio(data); err != nil {
				h.logger.Warn("relay audio failed", zap.String("session_id", bridge.ID), zap.Error(err))
				return
			}
		case websocket.TextMessage:
			if err := bridge.HandleControl(data); err != nil {
				h.logger.Warn("relay control failed", zap.String("session_id", bridge.ID), zap.Error(err))
			}
		default:
			h.logger.Debug("ignoring client frame",
				zap.String("session_id", bridge.ID),
				zap.Int("message_type", messageType))
		}
	}
}

// ServeSession returns the full session record for a connection id.
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, snap)
}

// ServeTranscripts returns only the transcript log for a connection id.
func (h *Handler) ServeTranscripts(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, map[string]any{
		"connection_id": snap.ID,
		"transcripts":   snap.Transcripts,
		"count":         len(snap.Transcripts),
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (session.Snapshot, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return session.Snapshot{}, false
	}

	id := r.URL.Query().Get("connection_id")
	if id == "" {
		http.Error(w, "connection_id parameter is required", http.StatusBadRequest)
		return session.Snapshot{}, false
	}

	sess := h.store.Get(id)
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return session.Snapshot{}, false
	}

	return sess.Snapshot(), true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
