// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the navigator.
type KeyMap struct {
	// Tabs
	TabA    key.Binding
	TabB    key.Binding
	TabC    key.Binding
	TabD    key.Binding
	NextTab key.Binding
	PrevTab key.Binding

	// Stack
	Back       key.Binding
	PopToRoot  key.Binding
	OpenThread key.Binding
	OpenPage   key.Binding

	// Deep links
	ChatLink      key.Binding
	TransportLink key.Binding

	// Launch flow and sheets
	Continue   key.Binding
	Onboarding key.Binding
	WhatsNew   key.Binding
	Paywall    key.Binding
	Compose    key.Binding
	Filters    key.Binding
	Dismiss    key.Binding
	RootSheet  key.Binding

	// General
	Save      key.Binding
	ToggleLog key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		TabA: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "explore"),
		),
		TabB: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "transport"),
		),
		TabC: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "chat"),
		),
		TabD: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "account"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab/l", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("shift+tab/h", "previous tab"),
		),

		Back: key.NewBinding(
			key.WithKeys("backspace", "b"),
			key.WithHelp("b", "back"),
		),
		PopToRoot: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "pop to root"),
		),
		OpenThread: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open conversation"),
		),
		OpenPage: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "open page"),
		),

		ChatLink: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "chat link"),
		),
		TransportLink: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "transport link"),
		),

		Continue: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
		Onboarding: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "onboarding"),
		),
		WhatsNew: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "what's new"),
		),
		Paywall: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "paywall"),
		),
		Compose: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "compose sheet"),
		),
		Filters: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filters sheet"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss sheet"),
		),
		RootSheet: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "root sheet"),
		),

		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save state"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "toggle log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Back, k.ChatLink, k.TransportLink, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TabA, k.TabB, k.TabC, k.TabD, k.NextTab, k.PrevTab},
		{k.Back, k.PopToRoot, k.OpenThread, k.OpenPage, k.Continue, k.Onboarding},
		{k.ChatLink, k.TransportLink, k.WhatsNew, k.Paywall, k.Compose, k.Filters, k.Dismiss, k.RootSheet},
		{k.Save, k.ToggleLog, k.Help, k.Quit},
	}
}

// All returns every binding, used to detect conflicts.
func (k KeyMap) All() []key.Binding {
	var out []key.Binding
	for _, col := range k.FullHelp() {
		out = append(out, col...)
	}
	return out
}
