package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-guard-bot/internal/moderation"
	"telegram-guard-bot/internal/ports"
)

// mockChatAPI — мок платформы с записью вызовов. Незаданная функция
// роли делает всех обычными участниками.
type mockChatAPI struct {
	mu sync.Mutex

	getChatMemberRoleFunc func(ctx context.Context, chatID, userID int64) (ports.Role, error)

	deleted  []int
	banned   []int64
	unbanned []int64
	sent     []string
	forwards []forwardCall

	banErr     error
	unbanErr   error
	forwardErr error
}

type forwardCall struct {
	to, from  int64
	messageID int
}

func (m *mockChatAPI) GetChatMemberRole(ctx context.Context, chatID, userID int64) (ports.Role, error) {
	if m.getChatMemberRoleFunc != nil {
		return m.getChatMemberRoleFunc(ctx, chatID, userID)
	}
	return ports.RoleMember, nil
}

func (m *mockChatAPI) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockChatAPI) BanMember(_ context.Context, _ int64, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banned = append(m.banned, userID)
	return m.banErr
}

func (m *mockChatAPI) UnbanMember(_ context.Context, _ int64, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unbanned = append(m.unbanned, userID)
	return m.unbanErr
}

func (m *mockChatAPI) SendMessage(_ context.Context, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	return nil
}

func (m *mockChatAPI) ForwardMessage(_ context.Context, toChatID, fromChatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwards = append(m.forwards, forwardCall{to: toChatID, from: fromChatID, messageID: messageID})
	return m.forwardErr
}

// mockResolver — мок MTProto-резолвера.
type mockResolver struct {
	resolveFunc func(ctx context.Context, handle string) (int64, error)
}

func (m *mockResolver) ResolveUserID(ctx context.Context, handle string) (int64, error) {
	return m.resolveFunc(ctx, handle)
}

const (
	testOwnerID  = int64(500)
	testAdminID  = int64(1)
	testMemberID = int64(2)
	testGroupID  = int64(-100500)
)

// newTestBot собирает бота на моках: админом считается testAdminID,
// владельцем — testOwnerID.
func newTestBot(t *testing.T, api *mockChatAPI, resolver ports.HandleResolver) *Bot {
	t.Helper()

	if api.getChatMemberRoleFunc == nil {
		api.getChatMemberRoleFunc = func(_ context.Context, _, userID int64) (ports.Role, error) {
			if userID == testAdminID {
				return ports.RoleAdministrator, nil
			}
			return ports.RoleMember, nil
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scope := moderation.NewGroupScope(0)
	links := moderation.NewAllowlist()
	ledger := moderation.NewWarningLedger(3)
	auth := moderation.NewAuthorizer(api, testOwnerID, logger)
	engine := moderation.NewEngine(api, auth, scope, links, ledger, 20, logger)

	return New(Deps{
		Chat:     api,
		Engine:   engine,
		Auth:     auth,
		Scope:    scope,
		Links:    links,
		Resolver: resolver,
		Logger:   logger,
	})
}

// commandMessage строит сообщение-команду с корректной entity, чтобы
// msg.IsCommand()/Command() работали как на реальных обновлениях.
func commandMessage(chatID, senderID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i != -1 {
		cmdLen = i
	}
	chatType := "supergroup"
	if chatID > 0 {
		chatType = "private"
	}
	return &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID, Type: chatType},
		From:      &tgbotapi.User{ID: senderID},
		Text:      text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}
}

func textMessage(chatID, senderID int64, messageID int, text string) *tgbotapi.Message {
	chatType := "supergroup"
	if chatID > 0 {
		chatType = "private"
	}
	return &tgbotapi.Message{
		MessageID: messageID,
		Chat:      &tgbotapi.Chat{ID: chatID, Type: chatType},
		From:      &tgbotapi.User{ID: senderID},
		Text:      text,
	}
}
