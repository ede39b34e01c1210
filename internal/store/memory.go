package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
	usermodel "github.com/jagcoaching/backend/internal/model/user"
)

// MemoryStore 是内存实现，用于本地开发与测试。
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]*usermodel.User // keyed by lowercased email
	summaries map[string]*livemodel.SessionSummary
}

// NewMemoryStore 创建内存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]*usermodel.User),
		summaries: make(map[string]*livemodel.SessionSummary),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user *usermodel.User) error {
	key := normalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; exists {
		return ErrUserExists
	}

	clone := *user
	s.users[key] = &clone
	return nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[normalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.ID == id {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStore) SaveSummary(_ context.Context, summary *livemodel.SessionSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *summary
	s.summaries[summary.SessionID] = &clone
	return nil
}

func (s *MemoryStore) GetSummary(_ context.Context, sessionID string) (*livemodel.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[sessionID]
	if !ok {
		return nil, ErrSummaryNotFound
	}

	clone := *summary
	return &clone, nil
}

func (s *MemoryStore) ListSummariesByUser(_ context.Context, userID string) ([]*livemodel.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*livemodel.SessionSummary
	for _, summary := range s.summaries {
		if summary.UserID == userID {
			clone := *summary
			result = append(result, &clone)
		}
	}

	// 最近的会话排在前面。
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result, nil
}

func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
