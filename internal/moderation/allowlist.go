package moderation

import (
	"sort"
	"strings"
	"sync"
)

// Маркеры, по которым текст считается содержащим ссылку.
var linkMarkers = []string{"http://", "https://", "t.me/"}

// ContainsLink сообщает, содержит ли текст хотя бы один маркер ссылки.
func ContainsLink(text string) bool {
	for _, m := range linkMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Allowlist — потокобезопасное in-memory множество подстрок,
// разрешённых внутри сообщений со ссылками. Состояние живёт только
// в памяти процесса и намеренно теряется при рестарте.
type Allowlist struct {
	mu    sync.RWMutex
	links map[string]struct{}
}

// NewAllowlist создаёт список, опционально засеянный начальными значениями.
func NewAllowlist(seed ...string) *Allowlist {
	a := &Allowlist{links: make(map[string]struct{}, len(seed))}
	for _, link := range seed {
		if link = strings.TrimSpace(link); link != "" {
			a.links[link] = struct{}{}
		}
	}
	return a
}

// Add добавляет ссылку. Повторное добавление — no-op.
func (a *Allowlist) Add(link string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.links[link] = struct{}{}
}

// Remove удаляет ссылку. Удаление отсутствующей — no-op.
func (a *Allowlist) Remove(link string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.links, link)
}

// List возвращает копию текущего содержимого. Порядок отсортирован
// только ради стабильного вывода; вызывающие не должны на него полагаться.
func (a *Allowlist) List() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.links))
	for link := range a.links {
		out = append(out, link)
	}
	sort.Strings(out)
	return out
}

// Permits сообщает, разрешён ли текст со ссылкой: true, если хотя бы одна
// запись списка входит в текст как подстрока. Сопоставление намеренно
// наивное — разрешённый домен разрешает и любой текст, содержащий его
// внутри более длинной строки. Это зафиксированная политика.
// Предикат вызывается только после того, как ContainsLink вернул true.
func (a *Allowlist) Permits(text string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for link := range a.links {
		if strings.Contains(text, link) {
			return true
		}
	}
	return false
}
