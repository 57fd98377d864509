package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"telegram-guard-bot/internal/domain"
	"telegram-guard-bot/internal/ports"
)

// DefaultWordLimit — максимум слов в текстовом сообщении по умолчанию.
const DefaultWordLimit = 20

// Engine — движок модерации: превращает одно входящее событие плюс
// накопленное состояние (скоуп, allowlist, леджер) в решение и
// применяет его эффекты через платформу.
type Engine struct {
	api       ports.ChatAPI
	auth      *Authorizer
	scope     *GroupScope
	allowlist *Allowlist
	ledger    *WarningLedger
	wordLimit int
	log       *slog.Logger
}

// NewEngine создаёт движок. Неположительный wordLimit заменяется
// на DefaultWordLimit.
func NewEngine(
	api ports.ChatAPI,
	auth *Authorizer,
	scope *GroupScope,
	allowlist *Allowlist,
	ledger *WarningLedger,
	wordLimit int,
	log *slog.Logger,
) *Engine {
	if wordLimit <= 0 {
		wordLimit = DefaultWordLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		api:       api,
		auth:      auth,
		scope:     scope,
		allowlist: allowlist,
		ledger:    ledger,
		wordLimit: wordLimit,
		log:       log,
	}
}

// Evaluate прогоняет событие через правила и возвращает решение.
// Порядок правил значим, выигрывает первое совпадение:
//  1. фильтр целевой группы;
//  2. освобождение администраторов;
//  3. пересланный контент;
//  4. текстовые проверки: лимит слов, затем ссылки против allowlist;
//  5. медиа (фото/видео/документ) — безусловное нарушение;
//  6. всё остальное проходит.
func (e *Engine) Evaluate(ctx context.Context, ev domain.ChatEvent) domain.Decision {
	if !e.scope.Covers(ev.ChatID) {
		return domain.Decision{Verdict: domain.VerdictScopedOut}
	}

	if e.auth.IsGroupAdmin(ctx, ev.SenderID, ev.ChatID) {
		return domain.Decision{Verdict: domain.VerdictExempt}
	}

	if ev.Forwarded {
		return domain.Decision{Verdict: domain.VerdictViolation, Reason: domain.ReasonForwarded}
	}

	if ev.Kind == domain.ContentText {
		if len(strings.Fields(ev.Text)) > e.wordLimit {
			return domain.Decision{Verdict: domain.VerdictViolation, Reason: domain.ReasonTooLong}
		}
		if ContainsLink(ev.Text) && !e.allowlist.Permits(ev.Text) {
			return domain.Decision{Verdict: domain.VerdictViolation, Reason: domain.ReasonDisallowedLink}
		}
		return domain.Decision{Verdict: domain.VerdictClean}
	}

	switch ev.Kind {
	case domain.ContentPhoto, domain.ContentVideo, domain.ContentDocument:
		return domain.Decision{Verdict: domain.VerdictViolation, Reason: domain.ReasonMedia}
	}

	return domain.Decision{Verdict: domain.VerdictClean}
}

// Process оценивает событие и применяет эффекты нарушения: удаление
// сообщения, запись в леджер и предупреждение либо бан при эскалации.
// Удаление, запись и уведомления — независимые best-effort вызовы:
// отказ одного логируется и не мешает остальным.
func (e *Engine) Process(ctx context.Context, ev domain.ChatEvent) domain.Decision {
	decision := e.Evaluate(ctx, ev)
	if decision.Verdict != domain.VerdictViolation {
		e.log.Debug("event passed",
			slog.Int64("chat_id", ev.ChatID),
			slog.Int64("sender_id", ev.SenderID),
			slog.String("verdict", decision.Verdict.String()))
		return decision
	}

	e.log.Info("violation detected",
		slog.Int64("chat_id", ev.ChatID),
		slog.Int64("sender_id", ev.SenderID),
		slog.Int("message_id", ev.MessageID),
		slog.String("reason", string(decision.Reason)))

	if err := e.api.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
		// Сообщение осталось в чате — окно несогласованности,
		// которое оператор видит только в логах.
		e.log.Error("failed to delete violating message",
			slog.Int64("chat_id", ev.ChatID),
			slog.Int("message_id", ev.MessageID),
			slog.String("error", err.Error()))
	}

	e.warn(ctx, ev.ChatID, ev.SenderID)
	return decision
}

// warn фиксирует нарушение в леджере и отправляет в чат либо
// предупреждение k/N, либо уведомление о бане при эскалации.
func (e *Engine) warn(ctx context.Context, chatID, userID int64) {
	count, escalated := e.ledger.Record(userID)

	if !escalated {
		text := fmt.Sprintf("⚠ Warning %d/%d", count, e.ledger.Limit())
		if err := e.api.SendMessage(ctx, chatID, text); err != nil {
			e.log.Error("failed to send warning notice",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()))
		}
		return
	}

	e.log.Info("warn limit reached, banning user",
		slog.Int64("chat_id", chatID),
		slog.Int64("user_id", userID))

	if err := e.api.BanMember(ctx, chatID, userID); err != nil {
		e.log.Error("failed to ban user after escalation",
			slog.Int64("chat_id", chatID),
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
	}
	if err := e.api.SendMessage(ctx, chatID, "🚫 User has been banned for repeated violations."); err != nil {
		e.log.Error("failed to send ban notice",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
	}
}
