package app

import (
	"fmt"

	"github.com/zjrosen/waypoint/internal/destination"
	"github.com/zjrosen/waypoint/internal/router"
	"github.com/zjrosen/waypoint/internal/routes"
)

// Stack is the rendered form of one router's navigation stack.
type Stack struct {
	// Items are the decoded destinations, oldest first.
	Items []string
	// Undecodable is set when the stack holds destinations the router no
	// longer knows. Items is then empty and Description says how many
	// entries there are.
	Undecodable bool
	Description string
}

// Frame is a copy of everything the view shows. It is taken on the
// execution context and rendered on the UI goroutine.
type Frame struct {
	Screen   routes.Screen
	Root     Stack
	Splash   Stack
	Selected routes.Tab
	Sheet    routes.TabsSheet
	Covers   Stack
	Sections map[routes.Tab]Stack
}

// Capture copies the state of root. It must run on the execution context.
func Capture(root *routes.RootRouter) Frame {
	tabs := root.Tabs
	return Frame{
		Screen:   root.Screen(),
		Root:     stackOf(root.Base),
		Splash:   stackOf(root.Splash.Base),
		Selected: tabs.Selected(),
		Sheet:    tabs.Sheet(),
		Covers:   stackOf(tabs.Base),
		Sections: map[routes.Tab]Stack{
			routes.TabA: stackOf(tabs.TabA.Base),
			routes.TabB: stackOf(tabs.TabB.Base),
			routes.TabC: stackOf(tabs.TabC.Base),
			routes.TabD: stackOf(tabs.TabD.Base),
		},
	}
}

func stackOf[D destination.Destination](b *router.Base[D]) Stack {
	decoded, ok := b.Decoded()
	if !ok {
		return Stack{Undecodable: true, Description: b.Describe()}
	}
	items := make([]string, len(decoded))
	for i, d := range decoded {
		items[i] = fmt.Sprint(d)
	}
	return Stack{Items: items, Description: b.Describe()}
}
