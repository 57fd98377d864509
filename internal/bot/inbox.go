package bot

import (
	"context"
	"errors"
	"log/slog"

	"telegram-guard-bot/internal/domain"
)

// errHandleResolverDisabled возвращается, когда @username встречается
// в команде, а MTProto-резолвер не сконфигурирован.
var errHandleResolverDisabled = errors.New("handle resolver is not configured")

// relayToInbox обрабатывает приватное сообщение боту. Сообщения самого
// владельца никуда не пересылаются; всё остальное уходит владельцу в
// личный чат без изменений — без ограничения частоты и без дедупликации.
func (b *Bot) relayToInbox(ctx context.Context, ev domain.ChatEvent) {
	if b.auth.IsOwner(ev.SenderID) {
		b.log.Debug("private message from owner, nothing to relay")
		return
	}

	err := b.chat.ForwardMessage(ctx, b.auth.OwnerID(), ev.ChatID, ev.MessageID)
	if err != nil {
		b.log.Error("failed to relay private message to owner",
			slog.Int64("from_chat", ev.ChatID),
			slog.Int("message_id", ev.MessageID),
			slog.String("error", err.Error()))
		return
	}
	b.log.Debug("private message relayed to owner",
		slog.Int64("from_chat", ev.ChatID),
		slog.Int("message_id", ev.MessageID))
}
