package user

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jagcoaching/backend/internal/auth"
	usermodel "github.com/jagcoaching/backend/internal/model/user"
	"github.com/jagcoaching/backend/internal/store"
	"github.com/jagcoaching/backend/pkg/utils"
)

// Handler 用户账号的HTTP处理器
type Handler struct {
	users store.UserStore
	auth  *auth.Manager
}

// New 创建用户处理器
func New(users store.UserStore, authMgr *auth.Manager) *Handler {
	return &Handler{users: users, auth: authMgr}
}

// RegisterRoutes 注册公开的账号路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

// RegisterAuthenticatedRoutes 注册需要登录的账号路由
func (h *Handler) RegisterAuthenticatedRoutes(r chi.Router) {
	r.Get("/user/profile", h.handleProfile)
}

// handleRegister 注册新用户
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || !strings.Contains(email, "@") {
		utils.RespondError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(payload.Password) < 8 {
		utils.RespondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to process password")
		return
	}

	newUser := &usermodel.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(payload.Name),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.CreateUser(r.Context(), newUser); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			utils.RespondError(w, http.StatusConflict, "email already registered")
			return
		}
		log.Printf("[user] create user failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, newUser)
}

// handleLogin 校验密码并签发访问令牌
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.users.GetUserByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			utils.RespondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		log.Printf("[user] login lookup failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(payload.Password)); err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.auth.Issue(account.ID, account.Email)
	if err != nil {
		log.Printf("[user] token issue failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// handleProfile 返回当前登录用户的信息
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	account, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			utils.RespondError(w, http.StatusNotFound, "user not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	utils.RespondJSON(w, http.StatusOK, account)
}
