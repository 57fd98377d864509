package moderation

import (
	"context"
	"log/slog"

	"telegram-guard-bot/internal/ports"
)

// Authorizer отвечает на вопрос «можно ли этому пользователю
// привилегированное действие» для двух ролей: администратор группы
// (делегируется платформе) и владелец бота (фиксированная личность
// из конфигурации).
type Authorizer struct {
	api     ports.ChatAPI
	ownerID int64
	log     *slog.Logger
}

// NewAuthorizer создаёт Authorizer. ownerID обязан быть провалидирован
// на старте: нулевой владелец превращает все проверки IsOwner в false.
func NewAuthorizer(api ports.ChatAPI, ownerID int64, log *slog.Logger) *Authorizer {
	if log == nil {
		log = slog.Default()
	}
	return &Authorizer{api: api, ownerID: ownerID, log: log}
}

// IsGroupAdmin проверяет через платформу, является ли пользователь
// администратором или создателем чата. Любая ошибка поиска (сеть,
// пользователь не участник, таймаут) трактуется как «не админ»:
// авторизация отказывает закрыто и никогда не эскалирует ошибку.
func (a *Authorizer) IsGroupAdmin(ctx context.Context, userID, chatID int64) bool {
	role, err := a.api.GetChatMemberRole(ctx, chatID, userID)
	if err != nil {
		a.log.Debug("member role lookup failed, treating as non-admin",
			slog.Int64("user_id", userID),
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
		return false
	}
	return role == ports.RoleAdministrator || role == ports.RoleCreator
}

// IsOwner — чистая локальная проверка равенства с владельцем бота.
func (a *Authorizer) IsOwner(userID int64) bool {
	return a.ownerID != 0 && userID == a.ownerID
}

// OwnerID возвращает идентификатор владельца (цель инбокс-релея).
func (a *Authorizer) OwnerID() int64 { return a.ownerID }
