package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/leptrans/internal/metrics"
)

func TestProgressUpdate(t *testing.T) {
	m := NewProgress("flux", 10, nil)
	m.Update(ProgressMsg(4))
	m.Update(ProgressMsg(2))
	if m.Fraction() != 0.4 {
		t.Errorf("expected 0.4, got %g", m.Fraction())
	}
	if !strings.Contains(m.View(), "4/10") {
		t.Errorf("view should show the count: %q", m.View())
	}

	_, cmd := m.Update(DoneMsg{Summary: "all good"})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done should quit the program")
	}
	if m.Fraction() != 1 || !strings.Contains(m.View(), "all good") {
		t.Errorf("unexpected final view %q", m.View())
	}
}

func TestProgressCancel(t *testing.T) {
	cancelled := false
	m := NewProgress("slab", 5, func() { cancelled = true })
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !cancelled {
		t.Error("quitting should cancel the run")
	}
	if !strings.Contains(m.View(), "cancelled") {
		t.Errorf("unexpected view %q", m.View())
	}
}

func TestProgressError(t *testing.T) {
	m := NewProgress("flux", 5, nil)
	m.Update(DoneMsg{Err: errors.New("boom")})
	if !strings.Contains(m.View(), "boom") {
		t.Errorf("view should show the error: %q", m.View())
	}
}

func TestProgressTick(t *testing.T) {
	m := NewProgress("flux", 100, context.CancelFunc(func() {}))
	m.Update(ProgressMsg(50))
	for i := 0; i < 70; i++ {
		m.Update(tickMsg{})
	}
	if len(m.history) != 60 {
		t.Errorf("history should be capped at 60, got %d", len(m.history))
	}
	if m.rate <= 0 {
		t.Error("expected a positive rate")
	}
}

func TestSparkline(t *testing.T) {
	if got := sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8); got != "▁▂▃▄▅▆▇█" {
		t.Errorf("unexpected sparkline %q", got)
	}
	if got := sparkline([]float64{3, 3, 3}, 8); got != "▁▁▁" {
		t.Errorf("flat data should give a flat line, got %q", got)
	}
	if sparkline(nil, 8) != "" {
		t.Error("expected an empty sparkline")
	}
}

func TestTrackView(t *testing.T) {
	points := []metrics.Point{
		{Z: 0, Kinetic: 10},
		{Step: 1, X: 0.5, Z: 5, Kinetic: 9},
		{Step: 2, X: 1, Z: 10, Kinetic: 8.5},
	}
	v := NewTrackView(20, 10, 5)
	out := v.Render(points)
	if !strings.Contains(out, "o") || !strings.Contains(out, "X") {
		t.Errorf("expected start and end markers:\n%s", out)
	}
	if !strings.Contains(out, "steps=") || !strings.Contains(out, "8.5 GeV") {
		t.Errorf("expected a summary line:\n%s", out)
	}
	if v.canvas[0][19] != 'X' || v.canvas[9][0] != 'o' {
		t.Errorf("unexpected corners %q %q", v.canvas[0][19], v.canvas[9][0])
	}
	if NewTrackView(20, 10).Render(nil) != "" {
		t.Error("expected nothing for an empty track")
	}
}

func TestSummary(t *testing.T) {
	out := Summary("slab", [][2]string{{"transmitted", "97"}, {"mean", "4.2 GeV"}})
	if !strings.Contains(out, "transmitted") || !strings.Contains(out, "4.2 GeV") {
		t.Errorf("unexpected summary %q", out)
	}
}
