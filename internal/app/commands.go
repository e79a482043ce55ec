package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"llmconnector/internal/auth"
	"llmconnector/internal/models"
)

// Navigate returns a command that requests a route change.
func Navigate(r auth.Route) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Route: r}
	}
}

// SignedIn returns a command announcing a new session.
func SignedIn(u models.User) tea.Cmd {
	return func() tea.Msg {
		return SignedInMsg{User: u}
	}
}

// NotifySuccess returns a command that adds a success notification.
func NotifySuccess(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// NotifyError returns a command that adds an error notification.
func NotifyError(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// NotifyInfo returns a command that adds an informational notification.
func NotifyInfo(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// signOutCmd ends the session and reports back once it is cleared.
func signOutCmd(s Session, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.SignOut(ctx)
		return SignedOutMsg{}
	}
}

// desktopNotifyCmd mirrors an error toast to the desktop.
func desktopNotifyCmd(notify func(title, message string) error, message string) tea.Cmd {
	if notify == nil {
		return nil
	}
	return func() tea.Msg {
		_ = notify("LLM Connector", message)
		return nil
	}
}
