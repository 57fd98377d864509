package domain

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatType определяет тип чата, из которого пришло событие.
type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

// ContentKind определяет вид содержимого сообщения.
type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentPhoto    ContentKind = "photo"
	ContentVideo    ContentKind = "video"
	ContentDocument ContentKind = "document"
	ContentOther    ContentKind = "other"
)

// ChatEvent — одно входящее событие чата.
// Неизменяемо после создания: строится один раз из сообщения Telegram
// и ровно один раз потребляется движком модерации либо инбокс-релеем.
type ChatEvent struct {
	ChatID    int64
	ChatType  ChatType
	SenderID  int64
	Kind      ContentKind
	Text      string // заполнено только при Kind == ContentText
	Forwarded bool
	MessageID int
}

// Verdict — итоговое состояние оценки события движком.
type Verdict int

const (
	// VerdictScopedOut — событие вне настроенной целевой группы, действий нет.
	VerdictScopedOut Verdict = iota
	// VerdictExempt — отправитель является администратором, правила не применяются.
	VerdictExempt
	// VerdictClean — событие не нарушает ни одного правила.
	VerdictClean
	// VerdictViolation — событие нарушает правило и подлежит удалению.
	VerdictViolation
)

// String возвращает человекочитаемое имя вердикта для логов.
func (v Verdict) String() string {
	switch v {
	case VerdictScopedOut:
		return "scoped_out"
	case VerdictExempt:
		return "exempt"
	case VerdictClean:
		return "clean"
	case VerdictViolation:
		return "violation"
	default:
		return "unknown"
	}
}

// ViolationReason — причина, по которой событие признано нарушением.
type ViolationReason string

const (
	ReasonForwarded      ViolationReason = "forwarded-content"
	ReasonTooLong        ViolationReason = "too-long"
	ReasonDisallowedLink ViolationReason = "disallowed-link"
	ReasonMedia          ViolationReason = "disallowed-media"
)

// Decision — результат оценки одного события.
// Reason заполнен только при Verdict == VerdictViolation.
type Decision struct {
	Verdict Verdict
	Reason  ViolationReason
}

// EventFromMessage строит ChatEvent из сообщения Bot API.
// Супергруппы приравниваются к группам: с точки зрения модерации
// различие не имеет значения.
func EventFromMessage(msg *tgbotapi.Message) ChatEvent {
	ev := ChatEvent{
		ChatID:    msg.Chat.ID,
		ChatType:  ChatGroup,
		MessageID: msg.MessageID,
	}
	if msg.Chat.IsPrivate() {
		ev.ChatType = ChatPrivate
	}
	if msg.From != nil {
		ev.SenderID = msg.From.ID
	}

	// ForwardDate — общий признак пересылки: он выставлен и для форвардов
	// со скрытым отправителем, где ForwardFrom/ForwardFromChat пусты.
	if msg.ForwardFrom != nil || msg.ForwardFromChat != nil || msg.ForwardDate != 0 {
		ev.Forwarded = true
	}

	switch {
	case msg.Text != "":
		ev.Kind = ContentText
		ev.Text = msg.Text
	case msg.Photo != nil:
		ev.Kind = ContentPhoto
	case msg.Video != nil:
		ev.Kind = ContentVideo
	case msg.Document != nil:
		ev.Kind = ContentDocument
	default:
		ev.Kind = ContentOther
	}

	return ev
}
