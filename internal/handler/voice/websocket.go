package voice

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tanuki-create/voicechat/internal/service/pipeline"
)

// Connection lifecycle. A connection sits in awaiting between audio
// units, processing while a pipeline run is in flight, and closed once
// the read loop exits.
type connState int

const (
	stateAwaitingAudio connState = iota
	stateProcessing
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateAwaitingAudio:
		return "awaiting_audio"
	case stateProcessing:
		return "processing"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// Handler is the connection gateway: it accepts duplex connections,
// mints session identities, and feeds audio units to the orchestrator.
type Handler struct {
	orchestrator *pipeline.Orchestrator
	upgrader     websocket.Upgrader
}

// New creates the gateway handler.
func New(orchestrator *pipeline.Orchestrator) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes wires the gateway endpoints. The duplex endpoint
// lives at the root; the single-shot upload sits under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/audio", h.handleWebSocket)
	r.Post("/api/process-audio", h.handleProcessAudio)
}

// controlFrame is an inbound text frame. Audio arrives as binary
// WebSocket messages, so frame classification is explicit in the
// message type rather than inferred from decode failures.
type controlFrame struct {
	Type string `json:"type"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess := h.orchestrator.Sessions().Create()
	log.Printf("[websocket] new connection session=%s", sess.ID)

	// Finalize exactly once, on any exit path: graceful close, abrupt
	// disconnect, or a fatal read error.
	defer h.orchestrator.Finish(sess.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var writeMu sync.Mutex
	send := func(ev pipeline.Event) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("[websocket] write failed session=%s: %v", sess.ID, err)
		}
	}

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, conn, &writeMu)

	state := stateAwaitingAudio

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error session=%s state=%v: %v", sess.ID, state, err)
			} else {
				log.Printf("[websocket] client disconnected session=%s", sess.ID)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		switch msgType {
		case websocket.TextMessage:
			h.handleControl(sess.ID, payload)
		case websocket.BinaryMessage:
			state = stateProcessing
			if err := h.orchestrator.RunTurn(ctx, sess.ID, payload, send); err != nil {
				log.Printf("[websocket] pipeline run failed session=%s: %v", sess.ID, err)
				send(pipeline.ErrorEvent("処理中にエラーが発生しました: " + err.Error()))
			}
			state = stateAwaitingAudio
		}
	}
}

// handleControl acknowledges textual control frames. None of them
// trigger pipeline action.
func (h *Handler) handleControl(sessionID string, payload []byte) {
	var frame controlFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		log.Printf("[websocket] invalid control frame session=%s: %v", sessionID, err)
		return
	}

	switch frame.Type {
	case "recording_stopped":
		log.Printf("[websocket] recording stopped session=%s", sessionID)
	default:
		log.Printf("[websocket] ignoring control frame type=%q session=%s", frame.Type, sessionID)
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
