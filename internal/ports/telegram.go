package ports

import "context"

// Role — роль участника в чате, как её сообщает платформа.
type Role string

const (
	RoleCreator       Role = "creator"
	RoleAdministrator Role = "administrator"
	RoleMember        Role = "member"
	RoleRestricted    Role = "restricted"
	RoleLeft          Role = "left"
	RoleKicked        Role = "kicked"
)

// ChatAPI определяет набор возможностей платформы, которые потребляет
// ядро модерации. Все вызовы удалённые; реализация обязана ограничивать
// их по времени. Транзакций нет: каждый вызов независим и best-effort.
type ChatAPI interface {
	GetChatMemberRole(ctx context.Context, chatID, userID int64) (Role, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	BanMember(ctx context.Context, chatID, userID int64) error
	UnbanMember(ctx context.Context, chatID, userID int64) error
	SendMessage(ctx context.Context, chatID int64, text string) error
	ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error
}

// HandleResolver превращает @username в идентификатор пользователя.
// Bot API такой операции для произвольных пользователей не даёт,
// поэтому реализация живёт поверх MTProto и подключается опционально.
type HandleResolver interface {
	ResolveUserID(ctx context.Context, handle string) (int64, error)
}
