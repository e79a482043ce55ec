package app

import (
	"testing"
	"time"
)

func TestNotificationsKeepNewest(t *testing.T) {
	now := time.Now()
	s := notifications{now: func() time.Time { return now }}
	for i := 0; i < maxNotifications+2; i++ {
		s.add(NotificationInfo, "msg", time.Minute)
	}

	active := s.active()
	if len(active) != maxNotifications {
		t.Fatalf("active = %d, want %d", len(active), maxNotifications)
	}
	if active[0].ID != "n3" {
		t.Errorf("oldest kept = %s, want n3", active[0].ID)
	}
}

func TestNotificationWithoutDurationStays(t *testing.T) {
	now := time.Now()
	n := Notification{CreatedAt: now}
	if n.Expired(now.Add(time.Hour)) {
		t.Error("notification without duration expired")
	}
}

func TestRemoveUnknownNotification(t *testing.T) {
	s := notifications{now: time.Now}
	s.add(NotificationError, "boom", time.Minute)
	s.remove("n42")
	if len(s.active()) != 1 {
		t.Error("unknown id removed a notification")
	}
}
