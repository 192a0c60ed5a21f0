package session

import (
	"sync"
	"time"

	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// Manager 以 uuid 保存 session，逾時未更新的 session 會被清除
type Manager struct {
	ttl   time.Duration
	rules recipe.IngredientRules

	mu       sync.RWMutex
	sessions map[string]*Session

	stop chan struct{}
	once sync.Once
}

// NewManager 創建 session 管理器並啟動清理
func NewManager(cfg config.SessionConfig, rules recipe.IngredientRules) *Manager {
	m := &Manager{
		ttl:      cfg.TTL,
		rules:    rules,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	if cfg.TTL > 0 && cfg.CleanupInterval > 0 {
		go m.cleanupLoop(cfg.CleanupInterval)
	}
	return m
}

// Create 建立新 session
func (m *Manager) Create() *Session {
	s := newSession(common.GenerateUUID(), m.rules, time.Now())
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get 取得 session，已逾時視為不存在
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || (m.ttl > 0 && s.expired(time.Now(), m.ttl)) {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete 刪除 session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len session 數量
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep 清除逾時 session，回傳清除數量
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.expired(now, m.ttl) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(time.Now()); n > 0 {
				common.LogDebug("清除逾時 session", zap.Int("count", n))
			}
		case <-m.stop:
			return
		}
	}
}

// Close 停止清理
func (m *Manager) Close() {
	m.once.Do(func() { close(m.stop) })
}
