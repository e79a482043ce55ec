// Package history renders the commit history, as its own screen and as the
// panel embedded in settings.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"llmconnector/internal/activity"
	"llmconnector/internal/app"
	"llmconnector/internal/models"
	"llmconnector/internal/ui/styles"
)

// Source lists the most recent commits.
type Source interface {
	Recent(ctx context.Context) ([]models.Commit, error)
}

type loadedMsg struct {
	panel   *Panel
	commits []models.Commit
	err     error
}

// Panel loads and renders the recent commits.
type Panel struct {
	src     Source
	timeout time.Duration
	now     func() time.Time

	commits []models.Commit
	loaded  bool
	loading bool
	width   int
}

func NewPanel(src Source, timeout time.Duration) *Panel {
	return &Panel{src: src, timeout: timeout, now: time.Now}
}

// Load fetches the commits again.
func (p *Panel) Load() tea.Cmd {
	if p.src == nil {
		return nil
	}
	p.loading = true
	src, timeout := p.src, p.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		commits, err := src.Recent(ctx)
		return loadedMsg{panel: p, commits: commits, err: err}
	}
}

// Update consumes the panel's own load results.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.panel != p {
			return nil
		}
		p.loading = false
		if msg.err != nil {
			return app.ErrorCmd("Could not load history", msg.err)
		}
		p.commits = msg.commits
		p.loaded = true
	case app.SignedOutMsg:
		p.commits = nil
		p.loaded = false
	}
	return nil
}

func (p *Panel) Commits() []models.Commit {
	return p.commits
}

func (p *Panel) SetWidth(w int) {
	p.width = w
}

// View renders the commit list, or an empty or loading state.
func (p *Panel) View() string {
	title := styles.SubTitleStyle.Render("Commit history")

	var body string
	switch {
	case !p.loaded && p.loading:
		body = styles.HelpStyle.Render("Loading commits...")
	case len(p.commits) == 0:
		body = styles.HelpStyle.Render("No commits yet. Changes to your API keys show up here.")
	default:
		now := p.now()
		rows := make([]string, 0, len(p.commits))
		for _, c := range p.commits {
			rows = append(rows, renderCommit(c, now))
		}
		body = strings.Join(rows, "\n\n")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, "", body)
	if p.width > 4 {
		return styles.CardStyle.Width(p.width - styles.CardStyle.GetHorizontalBorderSize()).Render(content)
	}
	return styles.CardStyle.Render(content)
}

func renderCommit(c models.Commit, now time.Time) string {
	head := styles.ActiveNavStyle.Render("●") + " " + c.Message
	meta := fmt.Sprintf("  %s · %s · %s",
		activity.RelativeTime(c.CreatedAt, now),
		activity.AbsoluteTime(c.CreatedAt),
		activity.FilesChanged(c.Changes),
	)
	return head + "\n" + styles.HelpStyle.Render(meta)
}
