package routes

import "github.com/zjrosen/waypoint/internal/router"

type TabARouter struct {
	*router.Base[TabADestination]
}

func NewTabARouter(env router.Env) *TabARouter {
	r := &TabARouter{Base: router.NewBase("TabARouter", tabARegistry, env)}
	router.Start(r)
	return r
}

type TabBRouter struct {
	*router.Base[TabBDestination]
}

func NewTabBRouter(env router.Env) *TabBRouter {
	r := &TabBRouter{Base: router.NewBase("TabBRouter", tabBRegistry, env)}
	router.Start(r)
	return r
}

// TabCRouter owns the chat section.
type TabCRouter struct {
	*router.Base[TabCDestination]
}

func NewTabCRouter(env router.Env) *TabCRouter {
	r := &TabCRouter{Base: router.NewBase("TabCRouter", tabCRegistry, env)}
	router.Start(r)
	return r
}

// OpenConversation shows a thread above the inbox, pushing the inbox first
// when the stack does not already hold it.
func (r *TabCRouter) OpenConversation(threadID int) {
	if !r.Contains(Inbox{}) {
		r.Navigate(Inbox{})
	}
	r.Navigate(Conversation{ThreadID: threadID})
}

type TabDRouter struct {
	*router.Base[TabDDestination]
}

func NewTabDRouter(env router.Env) *TabDRouter {
	r := &TabDRouter{Base: router.NewBase("TabDRouter", tabDRegistry, env)}
	router.Start(r)
	return r
}
