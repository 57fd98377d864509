package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"

	trm "telegram-guard-bot/internal/pkg/term"
	"telegram-guard-bot/internal/ports"
)

var (
	// ErrFloodWaitActive возвращается, когда резолвер не может выполнить запрос из-за активного ограничения FLOOD_WAIT.
	ErrFloodWaitActive = errors.New("resolver is in flood wait")
	// ErrNotAUser возвращается, когда юзернейм принадлежит каналу или чату, а не пользователю.
	ErrNotAUser = errors.New("username does not belong to a user")
	// floodWaitRegex используется для парсинга длительности ожидания из сообщения об ошибке.
	floodWaitRegex = regexp.MustCompile(`FLOOD_WAIT \((\d+)\)`)
)

// telegramAPI представляет необработанные методы API, которые мы используем.
type telegramAPI interface {
	UsersGetUsers(ctx context.Context, request []tg.InputUserClass) ([]tg.UserClass, error)
	ContactsResolveUsername(ctx context.Context, req *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error)
	HelpGetConfig(ctx context.Context) (*tg.Config, error)
}

// telegramAuth представляет клиент аутентификации.
type telegramAuth interface {
	auth.FlowClient
}

// telegramRunner определяет зависимости от клиента gotd.
// Это позволяет создавать моки в тестах.
type telegramRunner interface {
	Run(ctx context.Context, f func(ctx context.Context) error) error
	API() telegramAPI
	Auth() telegramAuth
}

// prodRunner является оберткой вокруг реального *telegram.Client для удовлетворения интерфейса telegramRunner.
type prodRunner struct {
	*telegram.Client
}

func (p *prodRunner) API() telegramAPI {
	return p.Client.API()
}

func (p *prodRunner) Auth() telegramAuth {
	return p.Client.Auth()
}

// authFlow определяет интерфейс для процесса аутентификации.
type authFlow interface {
	Run(ctx context.Context, client auth.FlowClient) error
}

// Resolver — потокобезопасный MTProto-резолвер юзернеймов. Bot API не
// умеет превращать произвольный @username в числовой ID, поэтому для
// команд /ban, /unban, /kick и /id по хэндлу используется
// пользовательская сессия MTProto. Инкапсулирует аутентификацию,
// обработку FLOOD_WAIT и выполнение запросов.
type Resolver struct {
	id         string
	tgRunner   telegramRunner
	authFlow   authFlow
	isTerminal func(fd int) bool
	clock      func() time.Time
	log        *slog.Logger

	mu             sync.RWMutex
	unhealthyUntil time.Time
	runErr         chan error
	startOnce      sync.Once
}

var _ ports.HandleResolver = (*Resolver)(nil)

// Config содержит конфигурацию для создания нового резолвера.
type Config struct {
	APIID       int
	APIHash     string
	PhoneNumber string
	SessionPath string
}

// ResolverOption определяет функциональную опцию для конфигурации резолвера.
type ResolverOption func(*Resolver)

// WithLogger устанавливает логгер для резолвера.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver создает новый экземпляр Resolver.
func NewResolver(cfg Config, opts ...ResolverOption) *Resolver {
	// Создаем аутентификатор для терминала.
	termAuth := trm.NewTerminal(cfg.PhoneNumber)

	// Настраиваем хранилище сессии.
	sessionStorage := &session.FileStorage{Path: cfg.SessionPath}

	// Создаем и настраиваем базовый клиент gotd.
	tgClient := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: sessionStorage,
	})

	r := &Resolver{
		id:         uuid.NewString(),
		tgRunner:   &prodRunner{Client: tgClient},
		authFlow:   auth.NewFlow(termAuth, auth.SendCodeOptions{}),
		isTerminal: func(fd int) bool { return term.IsTerminal(fd) },
		clock:      time.Now,
		log:        slog.Default(),
		runErr:     make(chan error, 1),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ID возвращает уникальный идентификатор резолвера.
func (r *Resolver) ID() string {
	return r.id
}

// Start запускает фоновый процесс клиента, включая аутентификацию.
// Должен быть вызван один раз перед использованием резолвера.
func (r *Resolver) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		go func() {
			r.log.InfoContext(ctx, "Starting resolver background runner", "resolver_id", r.id)
			err := r.tgRunner.Run(ctx, func(runCtx context.Context) error {
				// Проверяем статус аутентификации при запуске.
				if _, err := r.tgRunner.API().UsersGetUsers(runCtx, []tg.InputUserClass{&tg.InputUserSelf{}}); err != nil {
					// Если ошибка - это ожидаемое отсутствие сессии, логируем кратко.
					// Для всех остальных, непредвиденных ошибок, сохраняем полный вывод.
					if strings.Contains(err.Error(), "AUTH_KEY_UNREGISTERED") {
						r.log.WarnContext(runCtx, "Session check failed, attempting interactive auth", "resolver_id", r.id, "reason", "AUTH_KEY_UNREGISTERED")
					} else {
						r.log.WarnContext(runCtx, "Session check failed, attempting interactive auth", "resolver_id", r.id, "error", err)
					}
					if !r.isTerminal(int(os.Stdout.Fd())) {
						return fmt.Errorf("session is invalid and cannot perform interactive auth in non-terminal: %w", err)
					}
					if authErr := r.authFlow.Run(runCtx, r.tgRunner.Auth()); authErr != nil {
						return fmt.Errorf("interactive auth failed: %w", authErr)
					}
					r.log.InfoContext(runCtx, "Interactive auth successful, session saved", "resolver_id", r.id)
				}
				r.log.InfoContext(runCtx, "Resolver authenticated and ready", "resolver_id", r.id)

				// Держим соединение активным, пока не завершится контекст.
				<-runCtx.Done()
				return runCtx.Err()
			})

			if err != nil && !errors.Is(err, context.Canceled) {
				r.log.ErrorContext(ctx, "Resolver background runner exited with error", "resolver_id", r.id, "error", err)
			} else {
				r.log.InfoContext(ctx, "Resolver background runner stopped", "resolver_id", r.id)
			}

			r.runErr <- err
			close(r.runErr)
		}()
	})
}

// Health проверяет работоспособность резолвера.
// Если активен FLOOD_WAIT, возвращает ошибку.
// В противном случае выполняет легковесный запрос к API.
func (r *Resolver) Health(ctx context.Context) error {
	if err := r.checkHealthStatus(); err != nil {
		return err
	}

	// Выполняем легковесный запрос для проверки связи.
	err := r.do(ctx, func(ctx context.Context) error {
		_, err := r.tgRunner.API().HelpGetConfig(ctx)
		return err
	})

	// Метод do уже обработал и установил новый FLOOD_WAIT, если это было необходимо.
	return err
}

// ResolveUserID превращает @username (без префикса @) в числовой ID
// пользователя. Каналы и чаты не считаются пользователями.
func (r *Resolver) ResolveUserID(ctx context.Context, handle string) (int64, error) {
	var result *tg.ContactsResolvedPeer
	r.log.DebugContext(ctx, "Executing API call: ContactsResolveUsername", "username", handle)
	err := r.do(ctx, func(ctx context.Context) error {
		res, err := r.tgRunner.API().ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: handle})
		if err == nil {
			result = res
		}
		return err
	})
	// Ошибка FLOOD_WAIT уже логируется в handleError. Логируем остальные для полноты картины.
	if err != nil && !errors.Is(err, ErrFloodWaitActive) {
		r.log.WarnContext(ctx, "API call ContactsResolveUsername failed", "username", handle, "error", err)
	}
	if err != nil {
		return 0, err
	}

	peer, ok := result.Peer.(*tg.PeerUser)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotAUser, handle)
	}
	return peer.UserID, nil
}

// do — это основной метод, который выполняет всю работу.
// Он проверяет состояние, обрабатывает аутентификацию и ошибки.
func (r *Resolver) do(ctx context.Context, f func(ctx context.Context) error) error {
	r.log.DebugContext(ctx, "Executing 'do' method")
	if err := r.checkHealthStatus(); err != nil {
		r.log.WarnContext(ctx, "Resolver is unhealthy, aborting 'do'", "error", err)
		return err
	}

	// Предполагается, что r.Start() был вызван, и клиент работает в фоновом режиме.
	// Просто выполняем запрошенную операцию.
	opErr := f(ctx)

	if opErr != nil {
		// Обрабатываем специфичные ошибки, такие как FLOOD_WAIT.
		r.handleError(opErr)

		// Также проверяем, не отвалился ли сам клиент.
		select {
		case runErr, ok := <-r.runErr:
			if ok && runErr != nil {
				return fmt.Errorf("клиент telegram не запущен: %w (ошибка операции: %v)", runErr, opErr)
			}
		default:
			// Клиент все еще работает, возвращаем ошибку операции.
		}
	}

	return opErr
}

// checkHealthStatus проверяет, не находится ли резолвер в состоянии FLOOD_WAIT.
func (r *Resolver) checkHealthStatus() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.unhealthyUntil.IsZero() && r.clock().Before(r.unhealthyUntil) {
		err := fmt.Errorf("%w: active until %v", ErrFloodWaitActive, r.unhealthyUntil)
		r.log.Debug("Health check failed: resolver is in flood wait", "until", r.unhealthyUntil)
		return err
	}

	r.log.Debug("Health check passed: resolver is not in flood wait")
	return nil
}

// handleError обрабатывает ошибки, ищет FLOOD_WAIT и обновляет состояние резолвера.
func (r *Resolver) handleError(err error) {
	if waitDuration, ok := parseFloodWait(err); ok {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.unhealthyUntil = r.clock().Add(waitDuration)
		r.log.Warn("Resolver got FLOOD_WAIT, set unhealthy", "wait_duration", waitDuration, "until", r.unhealthyUntil)
	}
}

// parseFloodWait извлекает длительность ожидания из ошибки.
func parseFloodWait(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	matches := floodWaitRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0, false
	}

	seconds, convErr := strconv.Atoi(matches[1])
	if convErr != nil {
		return 0, false
	}

	return time.Duration(seconds) * time.Second, true
}
