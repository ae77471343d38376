package accommodation

import (
	"context"
	"log"
	"sync"

	"github.com/uma-arai/sbcntr-stay/internal/model"
)

// Notifier は操作結果の通知先です
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// LogNotifier は通知をログに出力します
type LogNotifier struct{}

// Notify は通知をログに出力します
func (LogNotifier) Notify(_ context.Context, n model.Notification) {
	log.Printf("[%s] %s: %s", n.Type, n.UserID, n.Message)
}

// MemoryNotifier は通知をメモリに溜めます
type MemoryNotifier struct {
	mu            sync.Mutex
	notifications []model.Notification
}

// Notify は通知を追加します
func (m *MemoryNotifier) Notify(_ context.Context, n model.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
}

// Notifications は受け取った通知のコピーを返します
func (m *MemoryNotifier) Notifications() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// Last は最後の通知を返します
func (m *MemoryNotifier) Last() (model.Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.notifications) == 0 {
		return model.Notification{}, false
	}
	return m.notifications[len(m.notifications)-1], true
}

// MultiNotifier は複数の通知先に同じ通知を配ります
type MultiNotifier []Notifier

// Notify は全ての通知先に通知します
func (m MultiNotifier) Notify(ctx context.Context, n model.Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
