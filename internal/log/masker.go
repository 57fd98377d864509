// Package log содержит обёртку над slog.Handler, которая маскирует
// токен бота в сообщениях и атрибутах: токен даёт полный контроль над
// ботом и не должен попадать в логи оператора ни при каких условиях.
package log

import (
	"context"
	"log/slog"
	"regexp"
)

// Токен Bot API имеет форму "<digits>:<35+ символов>"; в URL и ошибках
// клиента он встречается с префиксом "bot".
var botTokenRegex = regexp.MustCompile(`\bbot\d+:[A-Za-z0-9_-]{35,}`)

const tokenMask = "bot***:***redacted***"

// mask заменяет вхождения токена на маску.
func mask(s string) string {
	return botTokenRegex.ReplaceAllString(s, tokenMask)
}

// maskingHandler — slog.Handler, переписывающий записи перед передачей
// нижележащему обработчику.
type maskingHandler struct {
	next slog.Handler
}

// NewMaskedLogger оборачивает handler в маскирующий слой и возвращает
// готовый логгер.
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(&maskingHandler{next: handler})
}

func (h *maskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskingHandler) Handle(ctx context.Context, record slog.Record) error {
	// Свежая запись вместо Clone: у клона атрибуты остаются, и немаскированные
	// оригиналы просочились бы в вывод рядом с маскированными копиями.
	r := slog.NewRecord(record.Time, record.Level, mask(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(slog.Attr{Key: a.Key, Value: maskValue(a.Value)})
		return true
	})
	return h.next.Handle(ctx, r)
}

func (h *maskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = slog.Attr{Key: a.Key, Value: maskValue(a.Value)}
	}
	return &maskingHandler{next: h.next.WithAttrs(masked)}
}

func (h *maskingHandler) WithGroup(name string) slog.Handler {
	return &maskingHandler{next: h.next.WithGroup(name)}
}

// maskValue рекурсивно маскирует значение атрибута. Ошибки приводятся
// к строке: токен чаще всего утекает именно через текст ошибки HTTP-клиента.
func maskValue(v slog.Value) slog.Value {
	switch v.Kind() {
	case slog.KindString:
		return slog.StringValue(mask(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.StringValue(mask(err.Error()))
		}
		return v
	case slog.KindGroup:
		group := v.Group()
		masked := make([]slog.Attr, len(group))
		for i, a := range group {
			masked[i] = slog.Attr{Key: a.Key, Value: maskValue(a.Value)}
		}
		return slog.GroupValue(masked...)
	default:
		return v
	}
}
