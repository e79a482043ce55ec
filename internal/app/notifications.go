package app

import (
	"strconv"
	"time"
)

const maxNotifications = 5

// Notification represents a user-facing toast.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// Expired reports whether the toast has outlived its duration at now.
func (n Notification) Expired(now time.Time) bool {
	if n.Duration <= 0 {
		return false
	}
	return now.Sub(n.CreatedAt) >= n.Duration
}

// notifications is owned by the update loop and needs no locking.
type notifications struct {
	seq   int
	items []Notification
	now   func() time.Time
}

func (s *notifications) add(t NotificationType, message string, d time.Duration) string {
	s.seq++
	id := "n" + strconv.Itoa(s.seq)
	s.items = append(s.items, Notification{
		ID:        id,
		Type:      t,
		Message:   message,
		CreatedAt: s.now(),
		Duration:  d,
	})
	if len(s.items) > maxNotifications {
		s.items = s.items[len(s.items)-maxNotifications:]
	}
	return id
}

func (s *notifications) remove(id string) {
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// active returns the toasts that have not expired yet.
func (s *notifications) active() []Notification {
	now := s.now()
	out := make([]Notification, 0, len(s.items))
	for _, n := range s.items {
		if !n.Expired(now) {
			out = append(out, n)
		}
	}
	return out
}
