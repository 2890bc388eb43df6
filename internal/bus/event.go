package bus

import "time"

// Event kinds. Subscribers filter by prefix, e.g. "flash." or "session.".
const (
	KindFlashRotated       = "flash.rotated"
	KindFlashRotateFailed  = "flash.rotate_failed"
	KindFlashPersistFailed = "flash.persist_failed"
	KindSessionPurged      = "session.purged"
	KindDaemonStatus       = "daemon.status_changed"
)

// Event represents something that happened inside flashd.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// FlashRotated is the payload of KindFlashRotated.
type FlashRotated struct {
	SessionID string
	Groups    int
	Messages  int
	Deleted   bool
}

// FlashFailed is the payload of KindFlashRotateFailed and KindFlashPersistFailed.
type FlashFailed struct {
	SessionID string
	Err       error
}

// SessionPurged is the payload of KindSessionPurged.
type SessionPurged struct {
	Count int
}

// StatusChanged is the payload of KindDaemonStatus.
type StatusChanged struct {
	From string
	To   string
	Err  error
}
