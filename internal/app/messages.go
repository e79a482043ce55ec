package app

import (
	"time"

	"llmconnector/internal/auth"
	"llmconnector/internal/models"
)

// Notification durations.
const (
	DefaultNotificationDuration = 5 * time.Second
	LongNotificationDuration    = 8 * time.Second
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	NotificationSuccess NotificationType = iota
	NotificationError
	NotificationInfo
)

func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// NavigateMsg requests a route change. The root model runs it through the
// session guard before switching.
type NavigateMsg struct {
	Route auth.Route
}

// SignedInMsg is sent by the login and register screens after the session
// was established.
type SignedInMsg struct {
	User models.User
}

// SignOutMsg asks the root model to end the session.
type SignOutMsg struct{}

// SignedOutMsg is broadcast to every screen once the session is gone so
// per-user state can be dropped.
type SignedOutMsg struct{}

// AddNotificationMsg adds a toast.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg removes a toast.
type RemoveNotificationMsg struct {
	ID string
}

// ToggleHelpMsg toggles the help overlay.
type ToggleHelpMsg struct{}
