package moderation

import "sync"

// DefaultWarnLimit — порог эскалации по умолчанию: третье нарушение
// приводит к бану.
const DefaultWarnLimit = 3

// WarningLedger — потокобезопасный счётчик нарушений по пользователям.
// Записи создаются лениво при первом нарушении и живут до рестарта
// процесса. Инвариант: счётчик сбрасывается в ноль ровно в тот момент,
// когда достигает порога; снаружи значение на пороге или выше не
// наблюдается никогда.
type WarningLedger struct {
	limit int

	mu    sync.Mutex
	warns map[int64]int
}

// NewWarningLedger создаёт леджер с заданным порогом эскалации.
// Неположительный порог заменяется на DefaultWarnLimit.
func NewWarningLedger(limit int) *WarningLedger {
	if limit <= 0 {
		limit = DefaultWarnLimit
	}
	return &WarningLedger{
		limit: limit,
		warns: make(map[int64]int),
	}
}

// Limit возвращает порог эскалации.
func (l *WarningLedger) Limit() int { return l.limit }

// Record фиксирует одно нарушение пользователя и возвращает новое
// значение счётчика и признак эскалации. Инкремент и сброс при
// достижении порога выполняются в одной критической секции: решение
// об эскалации и обнуление неразделимы. Сам леджер платформу не
// трогает — бан и уведомления остаются на вызывающем.
func (l *WarningLedger) Record(userID int64) (count int, escalated bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.warns[userID]++
	count = l.warns[userID]
	if count >= l.limit {
		l.warns[userID] = 0
		return count, true
	}
	return count, false
}

// Snapshot возвращает копию всех ненулевых счётчиков. Используется
// статусным сервером; на живое состояние копия не влияет.
func (l *WarningLedger) Snapshot() map[int64]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[int64]int, len(l.warns))
	for userID, n := range l.warns {
		if n > 0 {
			out[userID] = n
		}
	}
	return out
}
