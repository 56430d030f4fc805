// Package toaster shows short-lived notifications over the navigator.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/waypoint/internal/ui/overlay"
	"github.com/zjrosen/waypoint/internal/ui/styles"
)

// DefaultDuration is how long a toast stays up.
const DefaultDuration = 3 * time.Second

// Style determines the visual appearance of the toast.
type Style int

const (
	StyleSuccess Style = iota
	StyleError
	StyleInfo
)

// Model holds the toaster state.
type Model struct {
	message string
	style   Style
	visible bool
	// seq identifies the toast on screen so a dismissal scheduled for an
	// earlier toast does not hide a later one.
	seq int
}

// New creates a new toaster model.
func New() Model {
	return Model{}
}

// Show displays message and returns the command that dismisses it after d.
func (m Model) Show(message string, style Style, d time.Duration) (Model, tea.Cmd) {
	m.seq++
	m.message = message
	m.style = style
	m.visible = true
	return m, ScheduleDismiss(m.seq, d)
}

// Hide dismisses the toast.
func (m Model) Hide() Model {
	m.visible = false
	m.message = ""
	return m
}

// Visible returns whether the toast is currently showing.
func (m Model) Visible() bool {
	return m.visible
}

// Message returns the text on screen, or "" when hidden.
func (m Model) Message() string {
	if !m.visible {
		return ""
	}
	return m.message
}

// Update hides the toast when msg dismisses the one on screen.
func (m Model) Update(msg tea.Msg) Model {
	if d, ok := msg.(DismissMsg); ok && d.seq == m.seq {
		return m.Hide()
	}
	return m
}

// View renders the toast box.
func (m Model) View() string {
	if !m.visible || m.message == "" {
		return ""
	}
	switch m.style {
	case StyleError:
		return styles.ToastError.Render("✗ " + m.message)
	case StyleInfo:
		return styles.ToastInfo.Render("• " + m.message)
	default:
		return styles.ToastSuccess.Render("✓ " + m.message)
	}
}

// Overlay renders the toast at the bottom of bg.
func (m Model) Overlay(bg string, width, height int) string {
	if !m.visible || m.message == "" {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.Bottom,
		PadY:     1,
	}, m.View(), bg)
}

// DismissMsg hides the toast it was scheduled for.
type DismissMsg struct{ seq int }

// ScheduleDismiss returns a command that dismisses toast seq after d.
func ScheduleDismiss(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return DismissMsg{seq: seq}
	})
}
