package settings

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"llmconnector/internal/app"
	"llmconnector/internal/keys"
	"llmconnector/internal/models"
	"llmconnector/internal/repo"
)

const validOpenAIKey = "sk-abcdefghijklmnopqrstuvwxyz012345"

type fakeStore struct {
	keys       []models.APIKey
	addCalls   int
	deleteErr  error
	deleteCall int
}

func (f *fakeStore) List(context.Context) ([]models.APIKey, error) {
	return append([]models.APIKey(nil), f.keys...), nil
}

func (f *fakeStore) Add(_ context.Context, provider, key string) (models.APIKey, error) {
	f.addCalls++
	k := models.APIKey{ID: "k-new", Provider: models.Provider(provider), KeyEncrypted: key, CreatedAt: time.Now()}
	f.keys = append([]models.APIKey{k}, f.keys...)
	return k, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.deleteCall++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, k := range f.keys {
		if k.ID == id {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

type fakeCommits struct{}

func (fakeCommits) Recent(context.Context) ([]models.Commit, error) { return nil, nil }

// drain runs cmd and every command it batches, returning the leaf messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// feed delivers msgs to the model, then everything they trigger.
func feed(m *Model, msgs []tea.Msg) []tea.Msg {
	var notes []tea.Msg
	for len(msgs) > 0 {
		msg := msgs[0]
		msgs = msgs[1:]
		if strings.HasPrefix(fmt.Sprintf("%T", msg), "cursor.") {
			continue
		}
		if n, ok := msg.(app.AddNotificationMsg); ok {
			notes = append(notes, n)
			continue
		}
		_, cmd := m.Update(msg)
		msgs = append(msgs, drain(cmd)...)
	}
	return notes
}

func press(m *Model, k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return cmd
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newLoaded(t *testing.T, store *fakeStore) *Model {
	t.Helper()
	m := New(store, fakeCommits{}, time.Second)
	m.SetSize(100, 40)
	feed(m, drain(m.Init()))
	return m
}

func TestUnknownProviderIsRejectedLocally(t *testing.T) {
	store := &fakeStore{}
	m := newLoaded(t, store)

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	typeText(m, validOpenAIKey)
	if cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatal("expected no command")
	}
	if store.addCalls != 0 {
		t.Fatalf("Add called %d times", store.addCalls)
	}
	if m.formErr != keys.ErrUnknownProvider.Error() {
		t.Errorf("form error = %q", m.formErr)
	}
}

func TestMalformedKeyIsRejectedLocally(t *testing.T) {
	store := &fakeStore{}
	m := newLoaded(t, store)

	press(m, tea.KeyMsg{Type: tea.KeyRight})
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	typeText(m, "sk-short")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if store.addCalls != 0 {
		t.Fatalf("Add called %d times", store.addCalls)
	}
	if !strings.Contains(m.formErr, keys.ErrInvalidKey.Error()) {
		t.Errorf("form error = %q", m.formErr)
	}
	if !strings.Contains(m.View(), m.formErr) {
		t.Error("form error not rendered")
	}
}

func TestAddReloadsList(t *testing.T) {
	store := &fakeStore{}
	m := newLoaded(t, store)
	if !strings.Contains(m.View(), "No API keys yet") {
		t.Fatal("empty state not rendered")
	}

	press(m, tea.KeyMsg{Type: tea.KeyRight})
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	typeText(m, validOpenAIKey)
	notes := feed(m, drain(press(m, tea.KeyMsg{Type: tea.KeyEnter})))

	if store.addCalls != 1 {
		t.Fatalf("Add called %d times", store.addCalls)
	}
	if len(m.list) != 1 || m.list[0].Provider != models.ProviderOpenAI {
		t.Fatalf("list = %+v", m.list)
	}
	if m.input.Value() != "" {
		t.Error("input not cleared")
	}
	if len(notes) != 1 || notes[0].(app.AddNotificationMsg).Type != app.NotificationSuccess {
		t.Errorf("notifications = %+v", notes)
	}
	if strings.Contains(m.View(), validOpenAIKey) {
		t.Error("key material rendered")
	}
}

func TestDeleteMissingKeyKeepsList(t *testing.T) {
	existing := []models.APIKey{
		{ID: "k1", Provider: models.ProviderOpenAI},
		{ID: "k2", Provider: models.ProviderAnthropic},
	}
	store := &fakeStore{keys: existing, deleteErr: repo.ErrNotFound}
	m := newLoaded(t, store)

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if !m.confirmDelete {
		t.Fatal("expected delete confirmation")
	}
	notes := feed(m, drain(press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})))

	if store.deleteCall != 1 {
		t.Fatalf("Delete called %d times", store.deleteCall)
	}
	if len(m.list) != 2 {
		t.Errorf("list changed: %+v", m.list)
	}
	if len(notes) != 1 || notes[0].(app.AddNotificationMsg).Type != app.NotificationError {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	store := &fakeStore{keys: []models.APIKey{{ID: "k1", Provider: models.ProviderGoogle}}}
	m := newLoaded(t, store)

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	feed(m, drain(press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})))

	if len(m.list) != 0 {
		t.Errorf("list = %+v", m.list)
	}
}

func TestCancelDelete(t *testing.T) {
	store := &fakeStore{keys: []models.APIKey{{ID: "k1", Provider: models.ProviderGoogle}}}
	m := newLoaded(t, store)

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if cmd := press(m, tea.KeyMsg{Type: tea.KeyEsc}); cmd != nil {
		t.Fatal("cancel should not issue a command")
	}
	if m.confirmDelete || store.deleteCall != 0 {
		t.Error("delete not cancelled")
	}
}

func TestSignOutClearsState(t *testing.T) {
	m := newLoaded(t, &fakeStore{keys: []models.APIKey{{ID: "k1", Provider: models.ProviderGoogle}}})
	m.Update(app.SignedOutMsg{})
	if len(m.list) != 0 || m.provider != -1 {
		t.Error("state survived sign-out")
	}
}
