package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jagcoaching/backend/pkg/utils"
)

var (
	// ErrInvalidToken is returned when the token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
	// ErrMissingClaims is returned when required claims are missing.
	ErrMissingClaims = errors.New("missing required claims")
)

// Claims 是从令牌中解析出的身份信息。
type Claims struct {
	UserID string
	Email  string
}

type contextKey struct{}

var claimsKey contextKey

// Manager 负责访问令牌的签发与校验。
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager 创建令牌管理器。
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue 为用户签发一个 HS256 访问令牌。
func (m *Manager) Issue(userID, email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate 校验令牌并返回其中的身份信息。
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token is not valid", ErrInvalidToken)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unable to parse claims", ErrInvalidToken)
	}

	userID, ok := mapClaims["sub"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: sub claim missing or invalid", ErrMissingClaims)
	}
	email, _ := mapClaims["email"].(string)

	return &Claims{UserID: userID, Email: email}, nil
}

// Middleware 校验 Authorization 头并将身份信息写入请求上下文。
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			utils.RespondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "authorization header must use the Bearer scheme")
			return
		}

		claims, err := m.Validate(strings.TrimSpace(tokenString))
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// OptionalMiddleware 在携带有效令牌时注入身份信息，匿名请求原样放行。
func (m *Manager) OptionalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if tokenString, ok := strings.CutPrefix(header, "Bearer "); ok {
			if claims, err := m.Validate(strings.TrimSpace(tokenString)); err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// WithClaims 将身份信息写入上下文。
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// FromContext 取出请求上下文中的身份信息。
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}
