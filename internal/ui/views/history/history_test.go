package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"llmconnector/internal/app"
	"llmconnector/internal/models"
)

type fakeSource struct {
	commits []models.Commit
	err     error
	calls   int
}

func (f *fakeSource) Recent(context.Context) ([]models.Commit, error) {
	f.calls++
	return f.commits, f.err
}

func TestEmptyState(t *testing.T) {
	m := New(&fakeSource{}, time.Second)
	m.Update(m.Init()())

	if !strings.Contains(m.View(), "No commits yet") {
		t.Error("empty state not rendered")
	}
}

func TestRendersCommits(t *testing.T) {
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{commits: []models.Commit{
		{ID: "c2", Message: "Remove openai API key", Changes: models.Changes{Files: 1}, CreatedAt: now.Add(-3 * time.Minute)},
		{ID: "c1", Message: "Add openai API key", Changes: models.Changes{Files: 1}, CreatedAt: now.Add(-time.Hour)},
	}}
	m := New(src, time.Second)
	m.panel.now = func() time.Time { return now }
	m.SetSize(100, 40)
	m.Update(m.Init()())

	view := m.View()
	for _, want := range []string{"Remove openai API key", "Add openai API key", "3 minutes ago", "1 file changed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Index(view, "Remove openai") > strings.Index(view, "Add openai") {
		t.Error("commits not rendered newest first")
	}
}

func TestLoadErrorRaisesToast(t *testing.T) {
	m := New(&fakeSource{err: errors.New("boom")}, time.Second)
	_, cmd := m.Update(m.Init()())
	if cmd == nil {
		t.Fatal("expected a notification command")
	}
	msg, ok := cmd().(app.AddNotificationMsg)
	if !ok || msg.Type != app.NotificationError {
		t.Fatalf("got %#v", cmd())
	}
}

func TestRefreshKeyReloads(t *testing.T) {
	src := &fakeSource{}
	m := New(src, time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	cmd()
	if src.calls != 1 {
		t.Errorf("calls = %d", src.calls)
	}
}

func TestPanelsIgnoreEachOther(t *testing.T) {
	a := NewPanel(&fakeSource{commits: []models.Commit{{ID: "c1", Message: "x"}}}, time.Second)
	b := NewPanel(&fakeSource{}, time.Second)

	b.Update(a.Load()())
	if len(b.Commits()) != 0 {
		t.Error("panel consumed another panel's result")
	}
}
