package app

import (
	"fmt"
	"strings"

	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/zjrosen/waypoint/internal/log"
	"github.com/zjrosen/waypoint/internal/routes"
	"github.com/zjrosen/waypoint/internal/ui/overlay"
	"github.com/zjrosen/waypoint/internal/ui/styles"
)

var (
	titleStyle    = styles.TitleStyle
	activeStyle   = styles.ActiveTab
	inactiveStyle = styles.InactiveTab
	dimStyle      = styles.MutedStyle
	errorStyle    = styles.ErrorStyle
)

const logLines = 8

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch m.frame.Screen {
	case routes.ScreenTabs:
		b.WriteString(m.tabsView())
	case routes.ScreenOnboarding:
		b.WriteString(titleStyle.Render("Onboarding"))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("enter to start"))
		b.WriteString("\n")
	default:
		b.WriteString(titleStyle.Render("Splash"))
		b.WriteString("\n")
		b.WriteString(renderStack(m.frame.Splash, "launch"))
		b.WriteString(dimStyle.Render("enter to continue · i for onboarding"))
		b.WriteString("\n")
	}

	if m.showLog {
		b.WriteString("\n")
		b.WriteString(m.logView())
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.cfg.Keys))

	view := b.String()
	if m.frame.Screen == routes.ScreenTabs && m.frame.Sheet != routes.SheetNone {
		sheet := styles.SheetStyle.Render("sheet: " + string(m.frame.Sheet))
		view = overlay.Place(overlay.Config{Width: m.width, Height: m.height, Position: overlay.Center}, sheet, view)
	}
	if len(m.frame.Root.Items) > 0 || m.frame.Root.Undecodable {
		sheets := styles.SheetStyle.Render(strings.TrimSuffix("root sheets\n"+renderStack(m.frame.Root, "none"), "\n"))
		view = overlay.Place(overlay.Config{Width: m.width, Height: m.height, Position: overlay.Top, PadY: 2}, sheets, view)
	}
	return zone.Scan(m.toast.Overlay(view, m.width, m.height))
}

func tabZoneID(t routes.Tab) string {
	return "tab:" + string(t)
}

func (m Model) header() string {
	label := "waypoint"
	screen := "screen: " + string(m.frame.Screen)
	gap := m.width - runewidth.StringWidth(label) - runewidth.StringWidth(screen)
	if gap < 1 {
		gap = 1
	}
	return titleStyle.Render(label) + strings.Repeat(" ", gap) + dimStyle.Render(screen)
}

func (m Model) tabsView() string {
	var b strings.Builder

	parts := make([]string, 0, len(routes.Tabs()))
	for _, t := range routes.Tabs() {
		var label string
		if t == m.frame.Selected {
			label = activeStyle.Render("▸ " + t.Title())
		} else {
			label = inactiveStyle.Render("  " + t.Title())
		}
		parts = append(parts, zone.Mark(tabZoneID(t), label))
	}
	b.WriteString(strings.Join(parts, " "))
	b.WriteString("\n\n")

	if len(m.frame.Covers.Items) > 0 || m.frame.Covers.Undecodable {
		b.WriteString(renderStack(m.frame.Covers, "cover"))
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render(m.frame.Selected.Title()))
	b.WriteString("\n")
	b.WriteString(renderStack(m.frame.Sections[m.frame.Selected], "root"))
	return b.String()
}

// renderStack lists decoded destinations, newest last. An empty stack shows
// the router's root page.
func renderStack(s Stack, rootLabel string) string {
	if s.Undecodable {
		return errorStyle.Render("  undecodable: "+s.Description) + "\n"
	}
	if len(s.Items) == 0 {
		return dimStyle.Render("  ("+rootLabel+")") + "\n"
	}
	var b strings.Builder
	for i, item := range s.Items {
		fmt.Fprintf(&b, "  %d %s\n", i+1, item)
	}
	return b.String()
}

func (m Model) logView() string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteString("\n")

	start := max(len(m.records)-logLines, 0)
	for _, rec := range m.records[start:] {
		line := m.fit(rec.String())
		if rec.Level == log.LevelError {
			line = errorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// fit truncates s to the terminal width.
func (m Model) fit(s string) string {
	if m.width <= 0 || runewidth.StringWidth(s) <= m.width {
		return s
	}
	return truncate.StringWithTail(s, uint(m.width), "…")
}
