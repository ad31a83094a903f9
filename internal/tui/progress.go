package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgressMsg reports the number of finished events.
type ProgressMsg int

// DoneMsg ends the progress view. Summary is shown once the run succeeded.
type DoneMsg struct {
	Summary string
	Err     error
}

type tickMsg time.Time

const historyLen = 60

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Progress is a bubbletea model following an ensemble run.
type Progress struct {
	title   string
	total   int
	done    int
	start   time.Time
	rate    float64
	history []float64
	summary string
	err     error
	quit    bool
	cancel  context.CancelFunc
}

func NewProgress(title string, total int, cancel context.CancelFunc) *Progress {
	return &Progress{
		title:   title,
		total:   total,
		start:   time.Now(),
		history: make([]float64, 0, historyLen),
		cancel:  cancel,
	}
}

func (m *Progress) Init() tea.Cmd { return tick() }

func (m *Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.quit = true
			return m, tea.Quit
		}
	case ProgressMsg:
		m.done = max(m.done, int(msg))
	case tickMsg:
		if elapsed := time.Since(m.start).Seconds(); elapsed > 0 {
			m.rate = float64(m.done) / elapsed
		}
		if len(m.history) == historyLen {
			m.history = m.history[1:]
		}
		m.history = append(m.history, m.rate)
		return m, tick()
	case DoneMsg:
		m.summary, m.err = msg.Summary, msg.Err
		if msg.Err == nil {
			m.done = m.total
		}
		m.quit = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Progress) Fraction() float64 {
	if m.total <= 0 {
		return 0
	}
	return min(float64(m.done)/float64(m.total), 1)
}

func (m *Progress) View() string {
	var b strings.Builder

	icon, status := green.Render("●"), green.Render("running")
	switch {
	case m.err != nil:
		icon, status = red.Render("✗"), red.Render(m.err.Error())
	case m.quit && m.done >= m.total:
		icon, status = cyan.Render("✓"), cyan.Render("done")
	case m.quit:
		icon, status = yellow.Render("○"), yellow.Render("cancelled")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", icon, cyan.Render(m.title), status))

	barWidth := 36
	filled := int(m.Fraction() * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	count := fmt.Sprintf("%d/%d", m.done, m.total)
	b.WriteString(fmt.Sprintf("   %s %s  %s\n", bar, dim.Render(count), magenta.Render(fmt.Sprintf("%.0f ev/s", m.rate))))

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("rate"), cyan.Render(sparkline(m.history, 24))))
	}
	if m.summary != "" {
		b.WriteString(m.summary)
	}
	if !m.quit {
		b.WriteString("\n" + dim.Render("   q cancel") + "\n")
	}
	return b.String()
}

// Run shows a progress view while work runs. The report callback passed to
// work may be called from any goroutine. Quitting the view cancels ctx.
func Run(ctx context.Context, title string, total int, work func(ctx context.Context, report func(int)) (string, error)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewProgress(title, total, cancel)
	p := tea.NewProgram(m)
	go func() {
		summary, err := work(ctx, func(n int) { p.Send(ProgressMsg(n)) })
		p.Send(DoneMsg{Summary: summary, Err: err})
	}()
	if _, err := p.Run(); err != nil {
		return err
	}
	if m.err != nil {
		return m.err
	}
	return ctx.Err()
}
