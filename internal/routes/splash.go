package routes

import (
	"fmt"

	"github.com/zjrosen/waypoint/internal/router"
)

// SplashRouter drives the launch flow.
type SplashRouter struct {
	*router.Base[SplashDestination]
}

func NewSplashRouter(env router.Env) *SplashRouter {
	r := &SplashRouter{Base: router.NewBase("SplashRouter", splashRegistry, env)}
	router.Start(r)
	return r
}

// Navigate moves the launch flow on. Onboarding and tabs switch the root
// screen; login is pushed onto the splash stack.
func (r *SplashRouter) Navigate(step SplashStep) {
	switch step {
	case StepLogin:
		r.Base.Navigate(step)
	case StepOnboarding:
		r.setRootScreen(ScreenOnboarding)
	case StepTabs:
		r.setRootScreen(ScreenTabs)
	default:
		panic(fmt.Sprintf("routes: unknown splash step %q", step))
	}
}

func (r *SplashRouter) setRootScreen(s Screen) {
	root, ok := router.RootOf[*RootRouter](r)
	if !ok {
		r.Node().Env().Logger.Error(r.Name(), "no root router to switch to "+string(s))
		return
	}
	root.SetScreen(s)
}
