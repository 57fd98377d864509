package moderation

import "sync"

// GroupScope — опциональное ограничение модерации одной группой.
// Пустое значение означает «работать во всех групповых чатах».
// Мутируется только привилегированной командой /setgroup.
type GroupScope struct {
	mu     sync.RWMutex
	chatID int64
	set    bool
}

// NewGroupScope создаёт скоуп. Ненулевой initial сразу ограничивает
// модерацию указанной группой (значение из конфигурации).
func NewGroupScope(initial int64) *GroupScope {
	s := &GroupScope{}
	if initial != 0 {
		s.chatID = initial
		s.set = true
	}
	return s
}

// Set ограничивает модерацию указанной группой.
func (s *GroupScope) Set(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatID = chatID
	s.set = true
}

// Get возвращает текущую целевую группу и признак того, что она задана.
func (s *GroupScope) Get() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatID, s.set
}

// Covers сообщает, попадает ли чат под действие модерации.
func (s *GroupScope) Covers(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.set || s.chatID == chatID
}
