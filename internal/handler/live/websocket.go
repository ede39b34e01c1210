package live

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
	liveService "github.com/jagcoaching/backend/internal/service/live"
)

// WebSocketHandler WebSocket采样流处理器
type WebSocketHandler struct {
	liveSvc  *liveService.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(liveSvc *liveService.Service) *WebSocketHandler {
	return &WebSocketHandler{
		liveSvc: liveSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	sess, err := h.liveSvc.GetSession(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}

	// Detached from the request context on purpose: the session outlives
	// nothing here, but request cancellation semantics differ per proxy
	// and the engine owns shutdown through Teardown.
	ctx, err := h.liveSvc.Attach(context.Background(), sess, conn)
	if err != nil {
		log.Printf("[websocket] attach rejected session=%s: %v", sessionID, err)
		_ = conn.WriteJSON(livemodel.OutboundMessage{
			Type:      livemodel.TypeError,
			Error:     "session already has an attached stream",
			Timestamp: time.Now().Unix(),
		})
		_ = conn.Close()
		return
	}

	log.Printf("[websocket] new connection for session: %s", sessionID)

	grace := h.liveSvc.Config().HeartbeatGrace

	conn.SetReadDeadline(time.Now().Add(2 * grace))
	conn.SetPongHandler(func(string) error {
		sess.Touch()
		conn.SetReadDeadline(time.Now().Add(2 * grace))
		return nil
	})

	go h.heartbeatLoop(ctx, sess)

	h.readLoop(ctx, sess, conn)
}

// readLoop 是采样摄入循环：持续读取客户端帧并写入最新样本缓冲。
func (h *WebSocketHandler) readLoop(ctx context.Context, sess *liveService.Session, conn *websocket.Conn) {
	grace := h.liveSvc.Config().HeartbeatGrace

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var msg livemodel.InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[websocket] read error session=%s: %v", sess.ID, err)
				}
				h.liveSvc.Teardown(sess, "stream closed by client")
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(2 * grace))

		switch msg.Type {
		case livemodel.TypeVideoFrame:
			data, err := livemodel.DecodeSamplePayload(msg.Data)
			if err != nil {
				log.Printf("[websocket] invalid video frame payload session=%s: %v", sess.ID, err)
				h.pushError(sess, "invalid video frame payload")
				continue
			}
			sess.StoreVideo(data)

		case livemodel.TypeAudioChunk:
			data, err := livemodel.DecodeSamplePayload(msg.Data)
			if err != nil {
				log.Printf("[websocket] invalid audio chunk payload session=%s: %v", sess.ID, err)
				h.pushError(sess, "invalid audio chunk payload")
				continue
			}
			sess.StoreAudio(data)

		case livemodel.TypePong:
			sess.Touch()

		case livemodel.TypePing:
			// 客户端主动探活，回以pong。
			sess.Touch()
			_ = sess.Push(livemodel.OutboundMessage{
				Type:      livemodel.TypePong,
				Timestamp: time.Now().Unix(),
			})

		default:
			log.Printf("[websocket] unsupported message type session=%s type=%q", sess.ID, msg.Type)
			h.pushError(sess, "unsupported message type: "+msg.Type)
		}
	}
}

// heartbeatLoop 周期性发送应用层ping，并在宽限期内未见活跃时终止会话。
func (h *WebSocketHandler) heartbeatLoop(ctx context.Context, sess *liveService.Session) {
	cfg := h.liveSvc.Config()

	ticker := time.NewTicker(cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Since(sess.LastLive()) > cfg.HeartbeatGrace {
				h.liveSvc.Teardown(sess, "no liveness evidence within grace window")
				return
			}
			if err := sess.Push(livemodel.OutboundMessage{
				Type:      livemodel.TypePing,
				Timestamp: time.Now().Unix(),
			}); err != nil {
				h.liveSvc.Teardown(sess, "heartbeat write failed")
				return
			}
		}
	}
}

func (h *WebSocketHandler) pushError(sess *liveService.Session, message string) {
	if err := sess.Push(livemodel.OutboundMessage{
		Type:      livemodel.TypeError,
		Error:     message,
		Timestamp: time.Now().Unix(),
	}); err != nil {
		log.Printf("[websocket] write error failed session=%s: %v", sess.ID, err)
	}
}
