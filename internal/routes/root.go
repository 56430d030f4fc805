package routes

import (
	"github.com/zjrosen/waypoint/internal/deeplink"
	"github.com/zjrosen/waypoint/internal/router"
)

// Screen is the application's top-level destination.
type Screen string

const (
	ScreenSplash     Screen = "splash"
	ScreenOnboarding Screen = "onboarding"
	ScreenTabs       Screen = "tabs"
)

// RootRouter owns the top-level screen and the two flows below it.
type RootRouter struct {
	*router.Base[RootDestination]

	screen *router.Tracked[Screen]

	Splash *SplashRouter
	Tabs   *TabsRouter
}

// NewRootRouter builds and starts the full hierarchy.
func NewRootRouter(env router.Env) *RootRouter {
	splash := NewSplashRouter(env)
	tabs := NewTabsRouter(env)

	r := &RootRouter{
		Base:   router.NewBase("RootRouter", rootRegistry, env),
		Splash: splash,
		Tabs:   tabs,
	}
	r.screen = router.Track(r.Node(), ScreenSplash)
	router.Start(r)

	r.Adopt(splash, tabs)
	return r
}

// Screen returns the top-level destination.
func (r *RootRouter) Screen() Screen { return r.screen.Get() }

// SetScreen changes the top-level destination.
func (r *RootRouter) SetScreen(s Screen) {
	if r.screen.Set(s) {
		r.Node().Env().Logger.Navigation(r.Name(), "screen -> "+string(s))
	}
}

// DidChange reports the stack together with the top-level screen.
func (r *RootRouter) DidChange() {
	r.EmitChange("screen", r.screen.Get())
}

// HandleDeepLink switches to the tabs flow and forwards l to it.
func (r *RootRouter) HandleDeepLink(l deeplink.DeepLink) {
	l = deeplink.Value(l)
	r.Node().Env().Logger.Info(r.Name(), "handling deep link "+l.String())
	r.SetScreen(ScreenTabs)
	r.Tabs.HandleDeepLink(l)
}
