package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"diagsnap/internal/harness"
)

// ReviewDecision is the verdict for one reviewed snapshot.
type ReviewDecision uint8

const (
	// ReviewSkip leaves the snapshot untouched.
	ReviewSkip ReviewDecision = iota
	// ReviewAccept blesses the snapshot with the captured output.
	ReviewAccept
)

// reviewModel pages through failing results, showing each diff in a
// viewport; "a" accepts (bless), "s" skips, "q" quits early.
type reviewModel struct {
	results   []harness.Result
	decisions []ReviewDecision
	current   int
	vp        viewport.Model
	ready     bool
	quit      bool
}

var (
	reviewTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	reviewHelpStyle  = lipgloss.NewStyle().Faint(true)
)

// NewReviewModel builds the interactive bless review over failing or
// new results.
func NewReviewModel(results []harness.Result) tea.Model {
	return &reviewModel{
		results:   results,
		decisions: make([]ReviewDecision, len(results)),
	}
}

// Decisions extracts the verdicts after the program finishes.
func Decisions(m tea.Model) []ReviewDecision {
	rm, ok := m.(*reviewModel)
	if !ok {
		return nil
	}
	return rm.decisions
}

func (m *reviewModel) Init() tea.Cmd {
	return nil
}

func (m *reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 3
		if !m.ready {
			m.vp = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
			m.setContent()
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = msg.Height - headerHeight
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		case "a":
			m.decisions[m.current] = ReviewAccept
			return m.advance()
		case "s":
			m.decisions[m.current] = ReviewSkip
			return m.advance()
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *reviewModel) advance() (tea.Model, tea.Cmd) {
	m.current++
	if m.current >= len(m.results) {
		return m, tea.Quit
	}
	m.setContent()
	return m, nil
}

func (m *reviewModel) setContent() {
	if !m.ready || m.current >= len(m.results) {
		return
	}
	res := m.results[m.current]
	content := res.Diff
	if res.Outcome == harness.OutcomeNew {
		content = "new snapshot:\n\n" + string(res.Actual)
	}
	m.vp.SetContent(content)
	m.vp.GotoTop()
}

func (m *reviewModel) View() string {
	if m.current >= len(m.results) || m.quit {
		return ""
	}
	res := m.results[m.current]

	var b strings.Builder
	b.WriteString(reviewTitleStyle.Render(
		fmt.Sprintf("[%d/%d] %s (%s)", m.current+1, len(m.results), res.Test.Name, res.Outcome)))
	b.WriteString("\n")
	if m.ready {
		b.WriteString(m.vp.View())
	}
	b.WriteString("\n")
	b.WriteString(reviewHelpStyle.Render("a accept  s skip  q quit  ↑/↓ scroll"))
	return b.String()
}
