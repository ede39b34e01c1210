package store

import (
	"context"
	"errors"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
	usermodel "github.com/jagcoaching/backend/internal/model/user"
)

var (
	// ErrUserExists 表示邮箱已被注册。
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound 表示用户不存在。
	ErrUserNotFound = errors.New("user not found")
	// ErrSummaryNotFound 表示会话总结不存在。
	ErrSummaryNotFound = errors.New("session summary not found")
)

// UserStore 定义用户账号的持久化接口。
type UserStore interface {
	CreateUser(ctx context.Context, user *usermodel.User) error
	GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error)
	GetUserByID(ctx context.Context, id string) (*usermodel.User, error)
}

// SummaryStore 定义会话总结的持久化接口。
type SummaryStore interface {
	SaveSummary(ctx context.Context, summary *livemodel.SessionSummary) error
	GetSummary(ctx context.Context, sessionID string) (*livemodel.SessionSummary, error)
	ListSummariesByUser(ctx context.Context, userID string) ([]*livemodel.SessionSummary, error)
}

// Store 聚合全部持久化接口。
type Store interface {
	UserStore
	SummaryStore
	Close(ctx context.Context) error
}
