package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"telegram-guard-bot/internal/moderation"
)

// Server представляет HTTP-сервер со статусом модерации. Все
// конечные точки только для чтения: управление ботом идёт через
// команды в Telegram, сервер лишь отдаёт текущее состояние для
// мониторинга.
type Server struct {
	HTTPServer *http.Server
	log        *slog.Logger
}

// Deps содержит состояние модерации, которое сервер публикует.
type Deps struct {
	Scope  *moderation.GroupScope
	Links  *moderation.Allowlist
	Ledger *moderation.WarningLedger
	Logger *slog.Logger
}

// New создает новый экземпляр Server на указанном адресе.
func New(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		// Текущий список разрешённых ссылок
		r.Get("/allowlist", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"links": d.Links.List(),
			})
		})

		// Счётчики предупреждений по пользователям
		r.Get("/warnings", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"limit":    d.Ledger.Limit(),
				"warnings": d.Ledger.Snapshot(),
			})
		})

		// Управляемая группа
		r.Get("/scope", func(w http.ResponseWriter, r *http.Request) {
			groupID, set := d.Scope.Get()
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"group_id": groupID,
				"set":      set,
			})
		})
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      chiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		HTTPServer: httpServer,
		log:        logger,
	}
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	s.log.Info("Starting status HTTP server", "addr", s.HTTPServer.Addr)
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down status HTTP server")
	return s.HTTPServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
