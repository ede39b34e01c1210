package live

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jagcoaching/backend/internal/auth"
	liveService "github.com/jagcoaching/backend/internal/service/live"
	"github.com/jagcoaching/backend/internal/store"
	"github.com/jagcoaching/backend/pkg/utils"
)

// Handler 实时会话的HTTP控制面处理器
type Handler struct {
	liveSvc   *liveService.Service
	summaries store.SummaryStore
}

// New 创建实时会话处理器
func New(liveSvc *liveService.Service, summaries store.SummaryStore) *Handler {
	return &Handler{
		liveSvc:   liveSvc,
		summaries: summaries,
	}
}

// RegisterRoutes 注册会话控制路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/start", h.handleStartSession)
	r.Post("/session/{sessionID}/stop", h.handleStopSession)
	r.Get("/session/{sessionID}/metrics", h.handleSessionMetrics)
}

// RegisterAuthenticatedRoutes 注册需要登录的历史查询路由
func (h *Handler) RegisterAuthenticatedRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
}

// handleStartSession 创建会话
func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if claims, ok := auth.FromContext(r.Context()); ok {
		userID = claims.UserID
	}

	sess, err := h.liveSvc.StartSession(userID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"session_id": sess.ID,
		"status":     "initialized",
	})
}

// handleStopSession 终止会话并返回累计指标
func (h *Handler) handleStopSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	metrics, err := h.liveSvc.StopSession(sessionID)
	if err != nil {
		if errors.Is(err, liveService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Printf("[live] stop session=%s failed: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to stop session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "stopped",
		"session_id": sessionID,
		"metrics":    metrics,
	})
}

// handleSessionMetrics 查询会话的当前指标
func (h *Handler) handleSessionMetrics(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	metrics, err := h.liveSvc.SessionMetrics(sessionID)
	if err != nil {
		if errors.Is(err, liveService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to read metrics")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"metrics":    metrics,
	})
}

// handleListSessions 返回当前用户的历史会话总结
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if h.summaries == nil {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"sessions": []struct{}{}})
		return
	}

	summaries, err := h.summaries.ListSummariesByUser(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("[live] list sessions for user=%s failed: %v", claims.UserID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"sessions": summaries})
}
