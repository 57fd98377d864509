package bot

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-guard-bot/internal/domain"
	"telegram-guard-bot/internal/moderation"
	"telegram-guard-bot/internal/ports"
)

// Размер буфера очереди одного чата. Переполнение означает, что чат
// генерирует события быстрее, чем платформа отвечает; лишние события
// не теряются — отправитель блокируется в диспетчере этого чата.
const chatQueueSize = 64

// Bot — основной объект бота: цикл обновлений, диспетчеризация по
// чатам и маршрутизация событий между движком модерации, командной
// поверхностью и инбокс-релеем.
type Bot struct {
	api      *tgbotapi.BotAPI
	chat     ports.ChatAPI
	engine   *moderation.Engine
	auth     *moderation.Authorizer
	scope    *moderation.GroupScope
	links    *moderation.Allowlist
	resolver ports.HandleResolver // nil, если MTProto-резолвер выключен
	log      *slog.Logger

	// Очереди по чатам: события одного чата обрабатываются строго
	// последовательно, чаты не блокируют друг друга на задержках
	// платформенных вызовов.
	workersMu sync.Mutex
	workers   map[int64]chan *tgbotapi.Message
	wg        sync.WaitGroup
}

// Deps — зависимости бота, собранные на старте.
type Deps struct {
	API      *tgbotapi.BotAPI
	Chat     ports.ChatAPI
	Engine   *moderation.Engine
	Auth     *moderation.Authorizer
	Scope    *moderation.GroupScope
	Links    *moderation.Allowlist
	Resolver ports.HandleResolver
	Logger   *slog.Logger
}

// New создаёт бота из собранных зависимостей.
func New(d Deps) *Bot {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:      d.API,
		chat:     d.Chat,
		engine:   d.Engine,
		auth:     d.Auth,
		scope:    d.Scope,
		links:    d.Links,
		resolver: d.Resolver,
		log:      logger,
		workers:  make(map[int64]chan *tgbotapi.Message),
	}
}

// Start запускает цикл обработки обновлений и блокируется до отмены
// контекста. После отмены дожидается, пока воркеры чатов дообработают
// уже принятые события.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.log.Info("context cancelled, stopping bot")
			b.api.StopReceivingUpdates()
			b.drain()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.dispatch(ctx, update.Message)
		}
	}
}

// dispatch ставит сообщение в очередь воркера его чата, лениво
// создавая воркер при первом событии.
func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	b.workersMu.Lock()
	queue, ok := b.workers[msg.Chat.ID]
	if !ok {
		queue = make(chan *tgbotapi.Message, chatQueueSize)
		b.workers[msg.Chat.ID] = queue
		b.wg.Add(1)
		go b.chatWorker(ctx, queue)
	}
	b.workersMu.Unlock()

	select {
	case queue <- msg:
	case <-ctx.Done():
	}
}

// chatWorker последовательно обрабатывает события одного чата.
func (b *Bot) chatWorker(ctx context.Context, queue <-chan *tgbotapi.Message) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-queue:
			b.handleMessage(ctx, msg)
		}
	}
}

// drain дожидается завершения воркеров.
func (b *Bot) drain() {
	b.wg.Wait()
}

// handleMessage маршрутизирует одно сообщение: команды уходят в
// командную поверхность минуя движок, приватные сообщения — в
// инбокс-релей, групповые — в движок модерации.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ev := domain.EventFromMessage(msg)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, ev)
		return
	}

	switch ev.ChatType {
	case domain.ChatPrivate:
		b.relayToInbox(ctx, ev)
	case domain.ChatGroup:
		b.engine.Process(ctx, ev)
	}
}

// reply отправляет ответ в чат, из которого пришла команда. Отказ
// отправки только логируется: ни одна ошибка платформы здесь не фатальна.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.chat.SendMessage(ctx, chatID, text); err != nil {
		b.log.Error("failed to send reply",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
	}
}
