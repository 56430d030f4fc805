package routes

import (
	"fmt"

	"github.com/zjrosen/waypoint/internal/deeplink"
	"github.com/zjrosen/waypoint/internal/router"
)

// Tab is one of the four sections of the tabs flow.
type Tab string

const (
	TabA Tab = "a"
	TabB Tab = "b"
	TabC Tab = "c"
	TabD Tab = "d"
)

// Tabs lists the sections in display order.
func Tabs() []Tab { return []Tab{TabA, TabB, TabC, TabD} }

// Title is the label shown in the tab bar.
func (t Tab) Title() string {
	switch t {
	case TabA:
		return "Explore"
	case TabB:
		return "Transport"
	case TabC:
		return "Chat"
	case TabD:
		return "Account"
	default:
		return string(t)
	}
}

// TabsSheet is a sheet presented from the tabs flow. The zero value means
// no sheet.
type TabsSheet string

const (
	SheetNone    TabsSheet = ""
	SheetCompose TabsSheet = "compose"
	SheetFilters TabsSheet = "filters"
)

// SectionFor returns the tab that owns l. It is total over the DeepLink
// union, pointer forms included.
func SectionFor(l deeplink.DeepLink) Tab {
	switch deeplink.Value(l).(type) {
	case deeplink.Chat:
		return TabC
	case deeplink.Transportation:
		return TabB
	default:
		panic(fmt.Sprintf("routes: unknown deep link %T", l))
	}
}

// TabsRouter owns tab selection, the presented sheet and one router per tab.
type TabsRouter struct {
	*router.Base[TabsDestination]

	selected *router.Tracked[Tab]
	sheet    *router.Tracked[TabsSheet]

	TabA *TabARouter
	TabB *TabBRouter
	TabC *TabCRouter
	TabD *TabDRouter
}

func NewTabsRouter(env router.Env) *TabsRouter {
	a, b, c, d := NewTabARouter(env), NewTabBRouter(env), NewTabCRouter(env), NewTabDRouter(env)

	r := &TabsRouter{
		Base: router.NewBase("TabsRouter", tabsRegistry, env),
		TabA: a,
		TabB: b,
		TabC: c,
		TabD: d,
	}
	r.selected = router.Track(r.Node(), TabA)
	r.sheet = router.Track(r.Node(), SheetNone)
	router.Start(r)

	r.Adopt(a, b, c, d)
	return r
}

func (r *TabsRouter) Selected() Tab { return r.selected.Get() }

// Select switches the visible tab.
func (r *TabsRouter) Select(t Tab) {
	if r.selected.Set(t) {
		r.Node().Env().Logger.Navigation(r.Name(), "selected tab "+string(t))
	}
}

func (r *TabsRouter) Sheet() TabsSheet { return r.sheet.Get() }

// PresentSheet shows s, replacing any sheet already presented.
func (r *TabsRouter) PresentSheet(s TabsSheet) {
	if r.sheet.Set(s) {
		r.Node().Env().Logger.Navigation(r.Name(), "presented sheet "+string(s))
	}
}

func (r *TabsRouter) DismissSheet() { r.sheet.Set(SheetNone) }

// Section returns the stack-owning router of tab t.
func (r *TabsRouter) Section(t Tab) router.Router {
	switch t {
	case TabA:
		return r.TabA
	case TabB:
		return r.TabB
	case TabC:
		return r.TabC
	case TabD:
		return r.TabD
	default:
		return nil
	}
}

// DidChange reports the stack together with the selection and sheet.
func (r *TabsRouter) DidChange() {
	r.EmitChange("selected_tab", r.selected.Get(), "sheet", r.sheet.Get())
}

// HandleDeepLink selects the section owning l and pushes its destination.
func (r *TabsRouter) HandleDeepLink(l deeplink.DeepLink) {
	l = deeplink.Value(l)
	r.Select(SectionFor(l))

	switch l := l.(type) {
	case deeplink.Chat:
		r.TabC.Navigate(Inbox{})
	case deeplink.Transportation:
		r.TabB.Navigate(Transportation{Type: TransportationType(l.Type)})
	default:
		panic(fmt.Sprintf("routes: unknown deep link %T", l))
	}
}
