// Package app contains the navigator's root bubbletea model. It renders the
// router hierarchy and turns key presses into router calls on the execution
// context.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/waypoint/internal/deeplink"
	"github.com/zjrosen/waypoint/internal/dispatch"
	"github.com/zjrosen/waypoint/internal/keys"
	"github.com/zjrosen/waypoint/internal/log"
	"github.com/zjrosen/waypoint/internal/pubsub"
	"github.com/zjrosen/waypoint/internal/routes"
	"github.com/zjrosen/waypoint/internal/state"
	"github.com/zjrosen/waypoint/internal/ui/toaster"
)

const maxRecords = 200

// Runner runs functions on the execution context. mainloop.Queue
// implements it.
type Runner interface {
	Do(fn func()) bool
}

// Config wires the model to the hierarchy.
type Config struct {
	Root       *routes.RootRouter
	Runner     Runner
	Dispatcher *dispatch.Dispatcher
	Logger     *log.Logger

	// Store saves the hierarchy on ctrl+s. Nil disables saving.
	Store *state.Store

	Keys keys.KeyMap
}

// frameMsg carries a fresh Frame and an optional success notice.
type frameMsg struct {
	frame  Frame
	status string
}

// statusMsg shows a notice without touching the frame.
type statusMsg struct {
	text  string
	style toaster.Style
}

func failed(format string, args ...any) statusMsg {
	return statusMsg{text: fmt.Sprintf(format, args...), style: toaster.StyleError}
}

// Model is the root application state.
type Model struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	listener *log.Listener
	records  []log.Record

	frame Frame
	toast toaster.Model

	threadID  int
	transport int

	showLog  bool
	showHelp bool
	help     help.Model

	width  int
	height int
}

var zonesOnce sync.Once

// New creates the model. The log subscription lives until Close or quit.
func New(cfg Config) Model {
	zonesOnce.Do(func() {
		if zone.DefaultManager == nil {
			zone.NewGlobal()
		}
	})
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if len(cfg.Keys.Quit.Keys()) == 0 {
		cfg.Keys = keys.DefaultKeyMap()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		listener: cfg.Logger.NewListener(ctx),
		toast:    toaster.New(),
		help:     help.New(),
		width:    80,
		height:   24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listener.Listen(), m.refresh(""))
}

// Close releases the log subscription.
func (m Model) Close() {
	m.cancel()
}

// Frame returns the last captured frame.
func (m Model) Frame() Frame { return m.frame }

// Records returns the buffered log records, oldest first.
func (m Model) Records() []log.Record { return m.records }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case pubsub.Event[log.Record]:
		m.records = append(m.records, msg.Payload)
		if over := len(m.records) - maxRecords; over > 0 {
			m.records = append([]log.Record(nil), m.records[over:]...)
		}
		switch msg.Payload.Level {
		case log.LevelState, log.LevelNavigation, log.LevelError:
			return m, tea.Batch(m.listener.Listen(), m.refresh(""))
		}
		return m, m.listener.Listen()

	case frameMsg:
		m.frame = msg.frame
		if msg.status == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.toast, cmd = m.toast.Show(msg.status, toaster.StyleSuccess, toaster.DefaultDuration)
		return m, cmd

	case statusMsg:
		var cmd tea.Cmd
		m.toast, cmd = m.toast.Show(msg.text, msg.style, toaster.DefaultDuration)
		return m, cmd

	case toaster.DismissMsg:
		m.toast = m.toast.Update(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	root := m.cfg.Root

	switch {
	case key.Matches(msg, k.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case key.Matches(msg, k.ToggleLog):
		m.showLog = !m.showLog
		return m, nil
	case key.Matches(msg, k.Save):
		return m, m.save()
	case key.Matches(msg, k.ChatLink):
		return m, m.dispatch(deeplink.Chat{})
	case key.Matches(msg, k.TransportLink):
		types := deeplink.TransportationTypes()
		t := types[m.transport%len(types)]
		m.transport++
		return m, m.dispatch(deeplink.Transportation{Type: t})
	case key.Matches(msg, k.RootSheet):
		return m, m.do(func() { presentRootSheet(root) })
	}

	if m.frame.Screen != routes.ScreenTabs {
		switch {
		case key.Matches(msg, k.Continue):
			return m, m.do(func() { advanceLaunch(root) })
		case key.Matches(msg, k.Onboarding) && m.frame.Screen == routes.ScreenSplash:
			return m, m.do(func() { root.Splash.Navigate(routes.StepOnboarding) })
		case key.Matches(msg, k.Back):
			return m, m.do(func() {
				if !dismissRootSheet(root) {
					root.Splash.NavigateBack()
				}
			})
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, k.TabA):
		return m, m.selectTab(routes.TabA)
	case key.Matches(msg, k.TabB):
		return m, m.selectTab(routes.TabB)
	case key.Matches(msg, k.TabC):
		return m, m.selectTab(routes.TabC)
	case key.Matches(msg, k.TabD):
		return m, m.selectTab(routes.TabD)
	case key.Matches(msg, k.NextTab):
		return m, m.selectTab(shiftTab(m.frame.Selected, 1))
	case key.Matches(msg, k.PrevTab):
		return m, m.selectTab(shiftTab(m.frame.Selected, -1))
	case key.Matches(msg, k.Back):
		return m, m.do(func() { back(root) })
	case key.Matches(msg, k.PopToRoot):
		return m, m.do(func() { popSection(root) })
	case key.Matches(msg, k.OpenThread):
		m.threadID++
		id := m.threadID
		return m, m.do(func() {
			root.Tabs.Select(routes.TabC)
			root.Tabs.TabC.OpenConversation(id)
		})
	case key.Matches(msg, k.OpenPage):
		if m.frame.Selected == routes.TabC {
			m.threadID++
		}
		id := m.threadID
		return m, m.do(func() { openPage(root, id) })
	case key.Matches(msg, k.WhatsNew):
		return m, m.do(func() { root.Tabs.Navigate(routes.CoverWhatsNew) })
	case key.Matches(msg, k.Paywall):
		return m, m.do(func() { root.Tabs.Navigate(routes.CoverPaywall) })
	case key.Matches(msg, k.Compose):
		return m, m.do(func() { root.Tabs.PresentSheet(routes.SheetCompose) })
	case key.Matches(msg, k.Filters):
		return m, m.do(func() { root.Tabs.PresentSheet(routes.SheetFilters) })
	case key.Matches(msg, k.Dismiss):
		return m, m.do(func() { root.Tabs.DismissSheet() })
	}

	return m, nil
}

// handleMouse selects a tab when its label is clicked.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.frame.Screen != routes.ScreenTabs ||
		msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	for _, t := range routes.Tabs() {
		if z := zone.Get(tabZoneID(t)); z != nil && z.InBounds(msg) {
			return m, m.selectTab(t)
		}
	}
	return m, nil
}

// stackRouter is the part of router.Base the key handlers use.
type stackRouter interface {
	NavigateBack() bool
	PopToRoot() int
	IsEmpty() bool
}

// advanceLaunch moves the launch flow on: splash shows login, login and
// onboarding lead to the tabs.
func advanceLaunch(root *routes.RootRouter) {
	switch {
	case root.Screen() == routes.ScreenOnboarding:
		root.SetScreen(routes.ScreenTabs)
	case root.Splash.IsEmpty():
		root.Splash.Navigate(routes.StepLogin)
	default:
		root.Splash.Navigate(routes.StepTabs)
	}
}

// scheduleLines are the timetables the transport tab opens in turn.
var scheduleLines = []string{"S1", "U4", "M10"}

// openPage pushes the next page of the selected section. Each section
// cycles through its pages by stack depth; the chat section opens thread.
func openPage(root *routes.RootRouter, thread int) {
	tabs := root.Tabs
	switch tabs.Selected() {
	case routes.TabA:
		pages := routes.TabAPages()
		tabs.TabA.Navigate(pages[tabs.TabA.Len()%len(pages)])
	case routes.TabB:
		tabs.TabB.Navigate(routes.Schedule{Line: scheduleLines[tabs.TabB.Len()%len(scheduleLines)]})
	case routes.TabC:
		tabs.TabC.OpenConversation(thread)
	case routes.TabD:
		pages := routes.AccountPages()
		tabs.TabD.Navigate(pages[tabs.TabD.Len()%len(pages)])
	}
}

// presentRootSheet pushes the next root sheet over whatever is showing.
func presentRootSheet(root *routes.RootRouter) {
	sheets := routes.RootSheets()
	root.Navigate(sheets[root.Len()%len(sheets)])
}

// dismissRootSheet pops the top root sheet and reports whether there was one.
func dismissRootSheet(root *routes.RootRouter) bool {
	if root.IsEmpty() {
		return false
	}
	return root.NavigateBack()
}

// back dismisses a root sheet first, then a cover, then pops the selected
// section.
func back(root *routes.RootRouter) {
	if dismissRootSheet(root) {
		return
	}
	if !root.Tabs.IsEmpty() {
		root.Tabs.NavigateBack()
		return
	}
	if s, ok := root.Tabs.Section(root.Tabs.Selected()).(stackRouter); ok {
		s.NavigateBack()
	}
}

func popSection(root *routes.RootRouter) {
	if s, ok := root.Tabs.Section(root.Tabs.Selected()).(stackRouter); ok {
		s.PopToRoot()
	}
}

func shiftTab(t routes.Tab, by int) routes.Tab {
	tabs := routes.Tabs()
	for i, candidate := range tabs {
		if candidate == t {
			return tabs[(i+by+len(tabs))%len(tabs)]
		}
	}
	return tabs[0]
}

func (m Model) selectTab(t routes.Tab) tea.Cmd {
	root := m.cfg.Root
	return m.do(func() { root.Tabs.Select(t) })
}

// do runs fn on the execution context and captures the resulting frame in
// the same turn, so the view never shows a half-applied change.
func (m Model) do(fn func()) tea.Cmd {
	runner, root := m.cfg.Runner, m.cfg.Root
	return func() tea.Msg {
		var f Frame
		if !runner.Do(func() {
			fn()
			f = Capture(root)
		}) {
			return failed("execution context closed")
		}
		return frameMsg{frame: f}
	}
}

func (m Model) refresh(status string) tea.Cmd {
	runner, root := m.cfg.Runner, m.cfg.Root
	return func() tea.Msg {
		var f Frame
		if !runner.Do(func() { f = Capture(root) }) {
			return failed("execution context closed")
		}
		return frameMsg{frame: f, status: status}
	}
}

func (m Model) dispatch(l deeplink.DeepLink) tea.Cmd {
	if m.cfg.Dispatcher == nil {
		return nil
	}
	ctx, d := m.ctx, m.cfg.Dispatcher
	return func() tea.Msg {
		res, err := d.Dispatch(ctx, l)
		if err != nil {
			return failed("dispatch failed: %v", err)
		}
		return m.refresh(fmt.Sprintf("opened %s in %s", l, res.Section.Title()))()
	}
}

func (m Model) save() tea.Cmd {
	if m.cfg.Store == nil {
		return func() tea.Msg {
			return statusMsg{text: "state persistence is disabled", style: toaster.StyleInfo}
		}
	}
	ctx, store, root, runner := m.ctx, m.cfg.Store, m.cfg.Root, m.cfg.Runner
	return func() tea.Msg {
		snap, err := store.SaveFrom(ctx, root, runner.Do)
		if err != nil {
			return failed("save failed: %v", err)
		}
		return statusMsg{text: fmt.Sprintf("saved %d stacks", len(snap.Stacks)), style: toaster.StyleSuccess}
	}
}
