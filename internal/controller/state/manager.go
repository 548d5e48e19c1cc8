package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager управляет сессиями пациентов: chat ID -> Session.
// Плюс множество чатов, уже получивших уведомление об активном
// бронировании, чтобы не слать его на каждое сообщение.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	notified map[int64]struct{}
	logger   *zap.Logger
}

// NewManager создаёт новый менеджер сессий
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		notified: make(map[int64]struct{}),
		logger:   logger,
	}
}

// Get возвращает сессию чата, создавая её лениво при первом обращении
func (m *Manager) Get(chatID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[chatID]
	if !ok {
		session = &Session{
			ChatID:       chatID,
			State:        StateIdle,
			LastActivity: time.Now(),
		}
		m.sessions[chatID] = session
	}
	return session
}

// Touch обновляет время последней активности
func (m *Manager) Touch(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[chatID]; ok {
		session.LastActivity = time.Now()
	}
}

// Reset сбрасывает сессию в IDLE с пустым черновиком
func (m *Manager) Reset(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[chatID]; ok {
		session.State = StateIdle
		session.Draft = Draft{}
		session.LastActivity = time.Now()
	}
}

// Clear удаляет сессию целиком
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, chatID)
}

// ClearAll удаляет все сессии (ежедневная очистка)
func (m *Manager) ClearAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := len(m.sessions)
	m.sessions = make(map[int64]*Session)
	return count
}

// MarkNotified запоминает что чат уже получил уведомление
// об активном бронировании
func (m *Manager) MarkNotified(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notified[chatID] = struct{}{}
}

// WasNotified проверяет получал ли чат уведомление
func (m *Manager) WasNotified(chatID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.notified[chatID]
	return ok
}

// ClearNotified сбрасывает отметку для чата: бронирование разрешилось,
// следующее активное бронирование снова получит одно уведомление
func (m *Manager) ClearNotified(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.notified, chatID)
}

// ClearAllNotified сбрасывает все отметки (ежедневная очистка)
func (m *Manager) ClearAllNotified() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notified = make(map[int64]struct{})
}

// StartSweeper запускает фоновую чистку простаивающих сессий.
// Сессия без активности дольше ttl удаляется при очередном проходе.
func (m *Manager) StartSweeper(ctx context.Context, ttl, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				evicted := m.Sweep(ttl)
				if evicted > 0 {
					m.logger.Info("Idle sessions evicted", zap.Int("count", evicted))
				}
			case <-ctx.Done():
				m.logger.Info("Session sweeper stopped")
				return
			}
		}
	}()
}

// Sweep удаляет сессии без активности дольше ttl, возвращает количество
func (m *Manager) Sweep(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := time.Now().Add(-ttl)
	evicted := 0
	for chatID, session := range m.sessions {
		if session.LastActivity.Before(deadline) {
			delete(m.sessions, chatID)
			evicted++
		}
	}
	return evicted
}
