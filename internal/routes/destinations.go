package routes

import (
	"fmt"

	"github.com/zjrosen/waypoint/internal/destination"
)

// RootDestination is the union held by the RootRouter stack.
type RootDestination interface {
	destination.Destination
	isRootDestination()
}

// RootSheet is a modal presented over the whole application.
type RootSheet string

const (
	SheetViewA RootSheet = "viewA"
	SheetViewB RootSheet = "viewB"
)

// RootSheets lists the root sheets in presentation order.
func RootSheets() []RootSheet { return []RootSheet{SheetViewA, SheetViewB} }

func (s RootSheet) ID() string { return string(s) }
func (RootSheet) Kind() string { return "root-sheet" }
func (RootSheet) isRootDestination() {}

// SplashDestination is the union held by the SplashRouter stack.
type SplashDestination interface {
	destination.Destination
	isSplashDestination()
}

// SplashStep is one step of the launch flow.
type SplashStep string

const (
	StepOnboarding SplashStep = "onboarding"
	StepLogin      SplashStep = "login"
	StepTabs       SplashStep = "tabs"
)

func (s SplashStep) ID() string { return string(s) }
func (SplashStep) Kind() string { return "splash-step" }
func (SplashStep) isSplashDestination() {}

// TabsDestination is the union held by the TabsRouter stack.
type TabsDestination interface {
	destination.Destination
	isTabsDestination()
}

// Cover is a full screen page shown above the tab bar.
type Cover string

const (
	CoverWhatsNew Cover = "whats-new"
	CoverPaywall  Cover = "paywall"
)

func (c Cover) ID() string { return string(c) }
func (Cover) Kind() string { return "cover" }
func (Cover) isTabsDestination() {}

// TabADestination is the union held by the TabARouter stack.
type TabADestination interface {
	destination.Destination
	isTabADestination()
}

// TabAPage is a page of tab A.
type TabAPage string

const (
	ViewOne TabAPage = "viewOne"
	ViewTwo TabAPage = "viewTwo"
)

// TabAPages lists the pages of tab A in display order.
func TabAPages() []TabAPage { return []TabAPage{ViewOne, ViewTwo} }

func (p TabAPage) ID() string { return string(p) }
func (TabAPage) Kind() string { return "tab-a-page" }
func (TabAPage) isTabADestination() {}

// TabBDestination is the union held by the TabBRouter stack.
type TabBDestination interface {
	destination.Destination
	isTabBDestination()
}

// TransportationType is the mode of transport shown by a Transportation page.
type TransportationType string

// Transportation shows live departures for one mode of transport.
type Transportation struct {
	Type TransportationType `json:"type"`
}

func (t Transportation) ID() string { return "transportation-" + string(t.Type) }
func (Transportation) Kind() string { return "transportation" }
func (Transportation) isTabBDestination() {}
func (t Transportation) String() string { return "transportation(" + string(t.Type) + ")" }

// Schedule shows the timetable of one line.
type Schedule struct {
	Line string `json:"line"`
}

func (s Schedule) ID() string { return "schedule-" + s.Line }
func (Schedule) Kind() string { return "schedule" }
func (Schedule) isTabBDestination() {}
func (s Schedule) String() string { return "schedule(" + s.Line + ")" }

// TabCDestination is the union held by the TabCRouter stack.
type TabCDestination interface {
	destination.Destination
	isTabCDestination()
}

// Inbox lists conversations.
type Inbox struct{}

func (Inbox) ID() string { return "inbox" }
func (Inbox) Kind() string { return "inbox" }
func (Inbox) isTabCDestination() {}
func (Inbox) String() string { return "inbox" }

// Conversation is one chat thread.
type Conversation struct {
	ThreadID int `json:"thread_id"`
}

func (c Conversation) ID() string { return fmt.Sprintf("conversation-%d", c.ThreadID) }
func (Conversation) Kind() string { return "conversation" }
func (Conversation) isTabCDestination() {}
func (c Conversation) String() string { return fmt.Sprintf("conversation(%d)", c.ThreadID) }

// TabDDestination is the union held by the TabDRouter stack.
type TabDDestination interface {
	destination.Destination
	isTabDDestination()
}

// AccountPage is a page of the account tab.
type AccountPage string

const (
	PageProfile  AccountPage = "profile"
	PageSettings AccountPage = "settings"
)

// AccountPages lists the account pages in display order.
func AccountPages() []AccountPage { return []AccountPage{PageProfile, PageSettings} }

func (p AccountPage) ID() string { return string(p) }
func (AccountPage) Kind() string { return "account-page" }
func (AccountPage) isTabDDestination() {}

var (
	rootRegistry = destination.NewRegistry("RootRouter",
		destination.Of[RootDestination, RootSheet]("root-sheet"),
	)
	splashRegistry = destination.NewRegistry("SplashRouter",
		destination.Of[SplashDestination, SplashStep]("splash-step"),
	)
	tabsRegistry = destination.NewRegistry("TabsRouter",
		destination.Of[TabsDestination, Cover]("cover"),
	)
	tabARegistry = destination.NewRegistry("TabARouter",
		destination.Of[TabADestination, TabAPage]("tab-a-page"),
	)
	tabBRegistry = destination.NewRegistry("TabBRouter",
		destination.Of[TabBDestination, Transportation]("transportation"),
		destination.Of[TabBDestination, Schedule]("schedule"),
	)
	tabCRegistry = destination.NewRegistry("TabCRouter",
		destination.Of[TabCDestination, Inbox]("inbox"),
		destination.Of[TabCDestination, Conversation]("conversation"),
	)
	tabDRegistry = destination.NewRegistry("TabDRouter",
		destination.Of[TabDDestination, AccountPage]("account-page"),
	)
)
