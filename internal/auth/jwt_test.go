package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	mgr := NewManager("test-secret", time.Minute)

	token, err := mgr.Issue("user-1", "user@example.com")
	require.NoError(t, err)

	claims, err := mgr.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Minute).Issue("user-1", "")
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Minute).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpiredToken(t *testing.T) {
	mgr := NewManager("test-secret", -time.Minute)

	token, err := mgr.Issue("user-1", "")
	require.NoError(t, err)

	_, err = mgr.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateEmptyToken(t *testing.T) {
	_, err := NewManager("test-secret", time.Minute).Validate("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	mgr := NewManager("test-secret", time.Minute)
	token, err := mgr.Issue("user-1", "user@example.com")
	require.NoError(t, err)

	var gotClaims *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := mgr.Middleware(next)

	t.Run("missing header", func(t *testing.T) {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, "user-1", gotClaims.UserID)
	})
}

func TestOptionalMiddleware(t *testing.T) {
	mgr := NewManager("test-secret", time.Minute)
	token, err := mgr.Issue("user-1", "")
	require.NoError(t, err)

	var gotClaims *Claims
	var hasClaims bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, hasClaims = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := mgr.OptionalMiddleware(next)

	t.Run("anonymous passes through", func(t *testing.T) {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.False(t, hasClaims)
	})

	t.Run("token binds identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)
		require.True(t, hasClaims)
		assert.Equal(t, "user-1", gotClaims.UserID)
	})
}
