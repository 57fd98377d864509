package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-guard-bot/internal/ports"
)

// APIAdapter реализует ports.ChatAPI поверх Bot API.
//
// Методы tgbotapi не принимают context: ограничение по времени даёт
// таймаут HTTP-клиента, с которым создан *tgbotapi.BotAPI. Контекст
// здесь проверяется перед вызовом, чтобы уже отменённая обработка не
// порождала новых сетевых запросов.
//
// Поля-функции позволяют подменять вызовы в тестах, не поднимая
// реальный клиент.
type APIAdapter struct {
	requestFunc       func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	sendFunc          func(c tgbotapi.Chattable) (tgbotapi.Message, error)
	getChatMemberFunc func(c tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

var _ ports.ChatAPI = (*APIAdapter)(nil)

// NewAPIAdapter создаёт адаптер поверх готового клиента Bot API.
func NewAPIAdapter(api *tgbotapi.BotAPI) *APIAdapter {
	return &APIAdapter{
		requestFunc:       api.Request,
		sendFunc:          api.Send,
		getChatMemberFunc: api.GetChatMember,
	}
}

// GetChatMemberRole возвращает роль участника чата.
func (a *APIAdapter) GetChatMemberRole(ctx context.Context, chatID, userID int64) (ports.Role, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	member, err := a.getChatMemberFunc(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return "", fmt.Errorf("getChatMember: %w", err)
	}
	return ports.Role(member.Status), nil
}

// DeleteMessage удаляет сообщение из чата.
func (a *APIAdapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.requestFunc(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("deleteMessage: %w", err)
	}
	return nil
}

// BanMember банит участника чата.
func (a *APIAdapter) BanMember(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	if _, err := a.requestFunc(cfg); err != nil {
		return fmt.Errorf("banChatMember: %w", err)
	}
	return nil
}

// UnbanMember снимает бан с участника чата.
func (a *APIAdapter) UnbanMember(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	if _, err := a.requestFunc(cfg); err != nil {
		return fmt.Errorf("unbanChatMember: %w", err)
	}
	return nil
}

// SendMessage отправляет текстовое сообщение в чат.
func (a *APIAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.sendFunc(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	return nil
}

// ForwardMessage пересылает сообщение в другой чат без изменений.
func (a *APIAdapter) ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.sendFunc(tgbotapi.NewForward(toChatID, fromChatID, messageID)); err != nil {
		return fmt.Errorf("forwardMessage: %w", err)
	}
	return nil
}
