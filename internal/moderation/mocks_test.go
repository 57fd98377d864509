package moderation

import (
	"context"
	"sync"

	"telegram-guard-bot/internal/ports"
)

// mockChatAPI — мок платформы с функциями-полями и записью вызовов.
// Незаданная функция означает успешный no-op.
type mockChatAPI struct {
	mu sync.Mutex

	getChatMemberRoleFunc func(ctx context.Context, chatID, userID int64) (ports.Role, error)

	deletedMessages []int
	bannedUsers     []int64
	unbannedUsers   []int64
	sentMessages    []string
	forwards        int

	deleteErr error
	banErr    error
	unbanErr  error
	sendErr   error
}

func (m *mockChatAPI) GetChatMemberRole(ctx context.Context, chatID, userID int64) (ports.Role, error) {
	if m.getChatMemberRoleFunc != nil {
		return m.getChatMemberRoleFunc(ctx, chatID, userID)
	}
	return ports.RoleMember, nil
}

func (m *mockChatAPI) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedMessages = append(m.deletedMessages, messageID)
	return m.deleteErr
}

func (m *mockChatAPI) BanMember(ctx context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bannedUsers = append(m.bannedUsers, userID)
	return m.banErr
}

func (m *mockChatAPI) UnbanMember(ctx context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unbannedUsers = append(m.unbannedUsers, userID)
	return m.unbanErr
}

func (m *mockChatAPI) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentMessages = append(m.sentMessages, text)
	return m.sendErr
}

func (m *mockChatAPI) ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwards++
	return nil
}

// adminOnly возвращает функцию роли, считающую админом только userID.
func adminOnly(adminID int64) func(ctx context.Context, chatID, userID int64) (ports.Role, error) {
	return func(_ context.Context, _, userID int64) (ports.Role, error) {
		if userID == adminID {
			return ports.RoleAdministrator, nil
		}
		return ports.RoleMember, nil
	}
}
