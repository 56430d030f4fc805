package app

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/waypoint/internal/dispatch"
	"github.com/zjrosen/waypoint/internal/log"
	"github.com/zjrosen/waypoint/internal/mainloop"
	"github.com/zjrosen/waypoint/internal/pubsub"
	"github.com/zjrosen/waypoint/internal/router"
	"github.com/zjrosen/waypoint/internal/routes"
	"github.com/zjrosen/waypoint/internal/state"
	"github.com/zjrosen/waypoint/internal/testutil"
)

// TestMain initializes the global zone manager for all tests in this package.
func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

type fixture struct {
	queue  *mainloop.Queue
	root   *routes.RootRouter
	logger *log.Logger
	cfg    Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	q := mainloop.New()
	logger := log.New(nil)
	env := router.Env{Logger: logger, Executor: q, Coalesce: 5 * time.Millisecond}

	var root *routes.RootRouter
	require.True(t, q.Do(func() { root = routes.NewRootRouter(env) }))
	t.Cleanup(func() {
		q.Do(root.Close)
		q.Close()
	})

	return &fixture{
		queue:  q,
		root:   root,
		logger: logger,
		cfg: Config{
			Root:       root,
			Runner:     q,
			Dispatcher: dispatch.New(q, root, dispatch.WithLogger(logger)),
			Logger:     logger,
		},
	}
}

func (f *fixture) model(t *testing.T) Model {
	t.Helper()
	m := New(f.cfg)
	t.Cleanup(m.Close)
	return apply(t, m, m.refresh(""))
}

// onTabs switches the hierarchy to the tabs screen.
func (f *fixture) onTabs(t *testing.T, m Model) Model {
	t.Helper()
	require.True(t, f.queue.Do(func() { f.root.SetScreen(routes.ScreenTabs) }))
	return apply(t, m, m.refresh(""))
}

// apply runs cmd synchronously and feeds its message back into m.
func apply(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if msg == nil {
		return m
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return apply(t, next.(Model), cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLaunchFlow(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	require.Equal(t, routes.ScreenSplash, m.Frame().Screen)
	require.Contains(t, m.View(), "Splash")
	require.Contains(t, m.View(), "(launch)")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, []string{"login"}, m.Frame().Splash.Items)
	require.Contains(t, m.View(), "1 login")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, routes.ScreenTabs, m.Frame().Screen)
	require.Contains(t, m.View(), "▸ Explore")
}

func TestTabKeysOnlyWorkOnTabsScreen(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, runes("3"))
	require.Equal(t, routes.TabA, m.Frame().Selected, "ignored on splash")

	m = f.onTabs(t, m)
	m = press(t, m, runes("3"))
	require.Equal(t, routes.TabC, m.Frame().Selected)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, routes.TabD, m.Frame().Selected)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, routes.TabA, m.Frame().Selected, "wraps around")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, routes.TabD, m.Frame().Selected)
}

func TestClickSelectsTab(t *testing.T) {
	f := newFixture(t)
	m := f.onTabs(t, f.model(t))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)

	// Zone registration is asynchronous, so render until the label is known.
	var z *zone.ZoneInfo
	require.Eventually(t, func() bool {
		_ = m.View()
		z = zone.Get(tabZoneID(routes.TabD))
		return z != nil && !z.IsZero()
	}, 2*time.Second, time.Millisecond)

	click := tea.MouseMsg{X: (z.StartX + z.EndX) / 2, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease}
	m = press(t, m, click)
	require.Equal(t, routes.TabD, m.Frame().Selected)

	m = press(t, m, tea.MouseMsg{X: 0, Y: z.StartY + 5, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	require.Equal(t, routes.TabD, m.Frame().Selected, "click outside the tab bar")
}

func TestConversationBackAndPop(t *testing.T) {
	f := newFixture(t)
	m := f.onTabs(t, f.model(t))

	m = press(t, m, runes("o"))
	m = press(t, m, runes("o"))
	require.Equal(t, routes.TabC, m.Frame().Selected)
	require.Equal(t, []string{"inbox", "conversation(1)", "conversation(2)"}, m.Frame().Sections[routes.TabC].Items)

	m = press(t, m, runes("b"))
	require.Equal(t, []string{"inbox", "conversation(1)"}, m.Frame().Sections[routes.TabC].Items)

	m = press(t, m, runes("r"))
	require.Empty(t, m.Frame().Sections[routes.TabC].Items)
	require.Contains(t, m.View(), "(root)")
}

func TestOpenPagePushesSelectedSection(t *testing.T) {
	f := newFixture(t)
	m := f.onTabs(t, f.model(t))

	m = press(t, m, runes("p"))
	m = press(t, m, runes("p"))
	m = press(t, m, runes("p"))
	require.Equal(t, []string{"viewOne", "viewTwo", "viewOne"}, m.Frame().Sections[routes.TabA].Items)

	m = press(t, m, runes("2"))
	m = press(t, m, runes("p"))
	m = press(t, m, runes("p"))
	require.Equal(t, []string{"schedule(S1)", "schedule(U4)"}, m.Frame().Sections[routes.TabB].Items)

	m = press(t, m, runes("3"))
	m = press(t, m, runes("p"))
	m = press(t, m, runes("o"))
	require.Equal(t, []string{"inbox", "conversation(1)", "conversation(2)"}, m.Frame().Sections[routes.TabC].Items)

	m = press(t, m, runes("4"))
	m = press(t, m, runes("p"))
	m = press(t, m, runes("p"))
	require.Equal(t, []string{"profile", "settings"}, m.Frame().Sections[routes.TabD].Items)
	require.Contains(t, m.View(), "2 settings")

	m = press(t, m, runes("b"))
	require.Equal(t, []string{"profile"}, m.Frame().Sections[routes.TabD].Items)
	require.Len(t, m.Frame().Sections[routes.TabA].Items, 3, "other sections untouched")
}

func TestPaywallCover(t *testing.T) {
	f := newFixture(t)
	m := f.onTabs(t, f.model(t))

	m = press(t, m, runes("w"))
	m = press(t, m, runes("v"))
	require.Equal(t, []string{"whats-new", "paywall"}, m.Frame().Covers.Items)
	require.Contains(t, m.View(), "2 paywall")

	m = press(t, m, runes("b"))
	require.Equal(t, []string{"whats-new"}, m.Frame().Covers.Items)
}

func TestRootSheetsOverEveryScreen(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, runes("s"))
	require.Equal(t, []string{"viewA"}, m.Frame().Root.Items)
	require.Contains(t, m.View(), "root sheets")
	require.Contains(t, m.View(), "1 viewA")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, []string{"login"}, m.Frame().Splash.Items)
	m = press(t, m, runes("b"))
	require.Empty(t, m.Frame().Root.Items, "sheet dismissed before the splash step")
	require.Equal(t, []string{"login"}, m.Frame().Splash.Items)
	require.NotContains(t, m.View(), "root sheets")

	m = f.onTabs(t, m)
	m = press(t, m, runes("p"))
	m = press(t, m, runes("w"))
	m = press(t, m, runes("s"))
	m = press(t, m, runes("s"))
	require.Equal(t, []string{"viewA", "viewB"}, m.Frame().Root.Items)

	m = press(t, m, runes("b"))
	m = press(t, m, runes("b"))
	require.Empty(t, m.Frame().Root.Items)
	require.Equal(t, []string{"whats-new"}, m.Frame().Covers.Items, "covers wait for the root sheets")

	m = press(t, m, runes("b"))
	require.Empty(t, m.Frame().Covers.Items)
	require.Equal(t, []string{"viewOne"}, m.Frame().Sections[routes.TabA].Items)
}

func TestOnboardingFromSplash(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)
	require.Contains(t, m.View(), "i for onboarding")

	m = press(t, m, runes("i"))
	require.Equal(t, routes.ScreenOnboarding, m.Frame().Screen)
	require.Contains(t, m.View(), "Onboarding")

	m = press(t, m, runes("i"))
	require.Equal(t, routes.ScreenOnboarding, m.Frame().Screen, "only offered on splash")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, routes.ScreenTabs, m.Frame().Screen)
}

func TestChatLinkFromSplash(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, runes("c"))
	require.Equal(t, routes.ScreenTabs, m.Frame().Screen)
	require.Equal(t, routes.TabC, m.Frame().Selected)
	require.Equal(t, []string{"inbox"}, m.Frame().Sections[routes.TabC].Items)
	require.Contains(t, m.View(), "opened chat in Chat")
}

func TestTransportLinkCyclesTypes(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	m = press(t, m, runes("t"))
	m = press(t, m, runes("t"))
	require.Equal(t, routes.TabB, m.Frame().Selected)
	require.Equal(t, []string{"transportation(bus)", "transportation(train)"}, m.Frame().Sections[routes.TabB].Items)
}

func TestCoverIsDismissedBeforeSection(t *testing.T) {
	f := newFixture(t)
	m := f.onTabs(t, f.model(t))

	m = press(t, m, runes("o"))
	m = press(t, m, runes("w"))
	require.Equal(t, []string{"whats-new"}, m.Frame().Covers.Items)
	require.Contains(t, m.View(), "1 whats-new")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	require.Empty(t, m.Frame().Covers.Items)
	require.Len(t, m.Frame().Sections[routes.TabC].Items, 2, "section untouched")
}

func TestSheets(t *testing.T) {
	f := newFixture(t)
	m := f.onTabs(t, f.model(t))

	m = press(t, m, runes("n"))
	require.Equal(t, routes.SheetCompose, m.Frame().Sheet)
	require.Contains(t, m.View(), "sheet: compose")

	m = press(t, m, runes("f"))
	require.Equal(t, routes.SheetFilters, m.Frame().Sheet)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, routes.SheetNone, m.Frame().Sheet)
	require.NotContains(t, m.View(), "sheet:")
}

func TestUndecodableSectionIsShown(t *testing.T) {
	f := newFixture(t)
	m := f.onTabs(t, f.model(t))

	var err error
	require.True(t, f.queue.Do(func() {
		f.root.Tabs.Select(routes.TabC)
		err = f.root.Tabs.TabC.RestoreStack([]byte(`[{"kind":"retired","payload":{}}]`))
	}))
	require.NoError(t, err)

	m = apply(t, m, m.refresh(""))
	require.True(t, m.Frame().Sections[routes.TabC].Undecodable)
	require.Contains(t, m.View(), "undecodable: items[1]")
}

func TestSave(t *testing.T) {
	f := newFixture(t)
	m := f.onTabs(t, f.model(t))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Contains(t, m.View(), "state persistence is disabled")

	db := testutil.NewTestDB(t)
	f.cfg.Store = state.NewStore(db.SnapshotRepository(), state.WithLogger(f.logger))
	m = f.onTabs(t, f.model(t))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Contains(t, m.View(), "saved 7 stacks")
}

func TestLogRecordsBufferedAndTruncated(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 30, Height: 20})
	m = next.(Model)

	for i := 0; i < maxRecords+5; i++ {
		next, _ = m.Update(pubsub.Event[log.Record]{
			Type:    pubsub.ChangedEvent,
			Payload: log.Record{Level: log.LevelInfo, Router: "TabCRouter", Message: "checked for item in path"},
		})
		m = next.(Model)
	}
	require.Len(t, m.Records(), maxRecords)
	require.NotContains(t, m.View(), "TabCRouter")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	view := m.View()
	require.Contains(t, view, "[INFO] [TabCRouter]")
	require.Contains(t, view, "…")
}

func TestHelpToggle(t *testing.T) {
	f := newFixture(t)
	m := f.model(t)

	require.NotContains(t, m.View(), "pop to root")
	m = press(t, m, runes("?"))
	require.Contains(t, m.View(), "pop to root")
}

func TestQuitCancelsSubscription(t *testing.T) {
	f := newFixture(t)
	m := New(f.cfg)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
	require.Error(t, m.ctx.Err())
}

func TestProgram_ChatLinkEndToEnd(t *testing.T) {
	f := newFixture(t)
	m := New(f.cfg)
	t.Cleanup(m.Close)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "Splash")
	}, teatest.WithDuration(3*time.Second))

	tm.Send(runes("c"))
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		s := string(out)
		return strings.Contains(s, "▸ Chat") && strings.Contains(s, "1 inbox")
	}, teatest.WithDuration(3*time.Second))

	tm.Send(runes("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final := tm.FinalModel(t).(Model)
	require.Equal(t, routes.TabC, final.Frame().Selected)
}
