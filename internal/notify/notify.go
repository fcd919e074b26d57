package notify

import "sync"

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient user-visible message.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func Info(msg string) Notification    { return Notification{Level: LevelInfo, Message: msg} }
func Success(msg string) Notification { return Notification{Level: LevelSuccess, Message: msg} }
func Warning(msg string) Notification { return Notification{Level: LevelWarning, Message: msg} }
func Error(msg string) Notification   { return Notification{Level: LevelError, Message: msg} }

// Notifier receives notifications emitted by a view.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(Notification) {})

const defaultQueueLimit = 20

// Queue buffers notifications until the next render drains them. When full,
// the oldest entry is dropped.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = defaultQueueLimit
	}
	return &Queue{limit: limit}
}

func (q *Queue) Notify(n Notification) {
	if n.Message == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
	if len(q.items) > q.limit {
		q.items = q.items[len(q.items)-q.limit:]
	}
}

// Drain returns the queued notifications in emission order and empties the queue.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		return []Notification{}
	}
	return out
}

// Peek returns a copy without draining.
func (q *Queue) Peek() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Notification{}, q.items...)
}
