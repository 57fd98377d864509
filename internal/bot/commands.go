package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-guard-bot/internal/domain"
)

const (
	cmdStart        = "start"
	cmdSetGroup     = "setgroup"
	cmdAddLink      = "addlink"
	cmdRemoveLink   = "removelink"
	cmdAllowedLinks = "allowedlinks"
	cmdUserID       = "id"
	cmdBan          = "ban"
	cmdUnban        = "unban"
	cmdKick         = "kick"
)

// handleCommand выполняет привилегированную команду. Все команды, кроме
// /start, требуют прав администратора группы; неавторизованные вызовы
// молча игнорируются без ответа (отказ закрыт). Ошибка разбора
// аргумента — локальная: ответ с подсказкой и никаких мутаций.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, ev domain.ChatEvent) {
	command := msg.Command()

	if command == cmdStart {
		if ev.ChatType == domain.ChatPrivate {
			b.reply(ctx, ev.ChatID, "Hi! I moderate the managed group. Messages you send here are relayed to the bot owner.")
		}
		return
	}

	if !b.auth.IsGroupAdmin(ctx, ev.SenderID, ev.ChatID) {
		b.log.Debug("unauthorized command dropped",
			slog.String("command", command),
			slog.Int64("sender_id", ev.SenderID),
			slog.Int64("chat_id", ev.ChatID))
		return
	}

	switch command {
	case cmdSetGroup:
		b.cmdSetGroup(ctx, ev, msg.CommandArguments())
	case cmdAddLink:
		b.cmdAddLink(ctx, ev, msg.CommandArguments())
	case cmdRemoveLink:
		b.cmdRemoveLink(ctx, ev, msg.CommandArguments())
	case cmdAllowedLinks:
		b.cmdAllowedLinks(ctx, ev)
	case cmdUserID:
		b.cmdUserID(ctx, ev, msg.CommandArguments())
	case cmdBan:
		b.cmdBan(ctx, ev, msg.CommandArguments())
	case cmdUnban:
		b.cmdUnban(ctx, ev, msg.CommandArguments())
	case cmdKick:
		b.cmdKick(ctx, ev, msg.CommandArguments())
	default:
		// Неизвестные команды не получают ответа: бот не раскрывает
		// свою командную поверхность посторонним.
	}
}

// singleArg извлекает ровно один позиционный аргумент команды.
func singleArg(raw string) (string, bool) {
	fields := strings.Fields(raw)
	if len(fields) != 1 {
		return "", false
	}
	return fields[0], true
}

func (b *Bot) cmdSetGroup(ctx context.Context, ev domain.ChatEvent, raw string) {
	arg, ok := singleArg(raw)
	if !ok {
		b.reply(ctx, ev.ChatID, "Usage: /setgroup <group_id>")
		return
	}
	gid, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		b.reply(ctx, ev.ChatID, "Usage: /setgroup <group_id>")
		return
	}

	b.scope.Set(gid)
	b.log.Info("target group changed", slog.Int64("group_id", gid), slog.Int64("by", ev.SenderID))
	b.reply(ctx, ev.ChatID, fmt.Sprintf("✔ Bot is now active only in group: %d", gid))
}

func (b *Bot) cmdAddLink(ctx context.Context, ev domain.ChatEvent, raw string) {
	link, ok := singleArg(raw)
	if !ok {
		b.reply(ctx, ev.ChatID, "Usage: /addlink <url>")
		return
	}

	b.links.Add(link)
	b.reply(ctx, ev.ChatID, "✔ Allowed link added:\n"+link)
}

func (b *Bot) cmdRemoveLink(ctx context.Context, ev domain.ChatEvent, raw string) {
	link, ok := singleArg(raw)
	if !ok {
		b.reply(ctx, ev.ChatID, "Usage: /removelink <url>")
		return
	}

	b.links.Remove(link)
	b.reply(ctx, ev.ChatID, "✔ Removed allowed link:\n"+link)
}

func (b *Bot) cmdAllowedLinks(ctx context.Context, ev domain.ChatEvent) {
	links := b.links.List()
	if len(links) == 0 {
		b.reply(ctx, ev.ChatID, "No allowed links.")
		return
	}
	b.reply(ctx, ev.ChatID, "Allowed links:\n"+strings.Join(links, "\n"))
}

func (b *Bot) cmdUserID(ctx context.Context, ev domain.ChatEvent, raw string) {
	arg, ok := singleArg(raw)
	if !ok {
		b.reply(ctx, ev.ChatID, "Usage: /id <@username>")
		return
	}

	userID, err := b.resolveHandle(ctx, arg)
	if err != nil {
		b.log.Warn("username resolution failed",
			slog.String("handle", arg),
			slog.String("error", err.Error()))
		b.reply(ctx, ev.ChatID, "Could not find username.")
		return
	}
	b.reply(ctx, ev.ChatID, fmt.Sprintf("User ID: %d", userID))
}

func (b *Bot) cmdBan(ctx context.Context, ev domain.ChatEvent, raw string) {
	arg, ok := singleArg(raw)
	if !ok {
		b.reply(ctx, ev.ChatID, "Usage: /ban <id or @username>")
		return
	}
	target, err := b.parseTarget(ctx, arg)
	if err != nil {
		b.reply(ctx, ev.ChatID, "Usage: /ban <id or @username>")
		return
	}

	if err := b.chat.BanMember(ctx, ev.ChatID, target); err != nil {
		b.log.Error("ban failed",
			slog.Int64("chat_id", ev.ChatID),
			slog.Int64("target", target),
			slog.String("error", err.Error()))
		return
	}
	b.reply(ctx, ev.ChatID, "✔ Banned: "+arg)
}

func (b *Bot) cmdUnban(ctx context.Context, ev domain.ChatEvent, raw string) {
	arg, ok := singleArg(raw)
	if !ok {
		b.reply(ctx, ev.ChatID, "Usage: /unban <id or @username>")
		return
	}
	target, err := b.parseTarget(ctx, arg)
	if err != nil {
		b.reply(ctx, ev.ChatID, "Usage: /unban <id or @username>")
		return
	}

	if err := b.chat.UnbanMember(ctx, ev.ChatID, target); err != nil {
		b.log.Error("unban failed",
			slog.Int64("chat_id", ev.ChatID),
			slog.Int64("target", target),
			slog.String("error", err.Error()))
		return
	}
	b.reply(ctx, ev.ChatID, "✔ Unbanned: "+arg)
}

// cmdKick исключает пользователя без постоянного бана: бан и сразу
// следом разбан. Вызовы последовательны и не атомарны: если бан прошёл,
// а разбан упал, пользователь остаётся забаненным, при этом команда
// всё равно отвечает успехом. Разрыв виден оператору только в логах.
func (b *Bot) cmdKick(ctx context.Context, ev domain.ChatEvent, raw string) {
	arg, ok := singleArg(raw)
	if !ok {
		b.reply(ctx, ev.ChatID, "Usage: /kick <id or @username>")
		return
	}
	target, err := b.parseTarget(ctx, arg)
	if err != nil {
		b.reply(ctx, ev.ChatID, "Usage: /kick <id or @username>")
		return
	}

	if err := b.chat.BanMember(ctx, ev.ChatID, target); err != nil {
		b.log.Error("kick: ban failed",
			slog.Int64("chat_id", ev.ChatID),
			slog.Int64("target", target),
			slog.String("error", err.Error()))
		return
	}
	if err := b.chat.UnbanMember(ctx, ev.ChatID, target); err != nil {
		b.log.Error("kick: unban failed, user left banned",
			slog.Int64("chat_id", ev.ChatID),
			slog.Int64("target", target),
			slog.String("error", err.Error()))
	}
	b.reply(ctx, ev.ChatID, "✔ Kicked: "+arg)
}

// parseTarget превращает аргумент команды в идентификатор пользователя:
// либо числовой id, либо @username через резолвер.
func (b *Bot) parseTarget(ctx context.Context, arg string) (int64, error) {
	if strings.HasPrefix(arg, "@") {
		return b.resolveHandle(ctx, arg)
	}
	return strconv.ParseInt(arg, 10, 64)
}

// resolveHandle резолвит @username в id пользователя через MTProto.
func (b *Bot) resolveHandle(ctx context.Context, handle string) (int64, error) {
	if b.resolver == nil {
		return 0, errHandleResolverDisabled
	}
	return b.resolver.ResolveUserID(ctx, strings.TrimPrefix(handle, "@"))
}
