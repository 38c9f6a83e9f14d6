package client

import "sync"

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// user-facing notices
const (
	SessionExpiredNotice = "your session has expired, please log in again"
	NotAllowedNotice     = "you are not allowed to access this page"
	UpgradeNotice        = "this feature is not included in your school's subscription"
)

// Notice is a transient message for the user (a toast).
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// NoticeLog records notices. Useful for headless clients and tests.
type NoticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (l *NoticeLog) Notify(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *NoticeLog) All() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notice(nil), l.notices...)
}

func notify(n Notifier, level NoticeLevel, msg string) {
	if n != nil {
		n.Notify(Notice{Level: level, Message: msg})
	}
}
