package testutil

// Router paths of the standard hierarchy.
const (
	RootPath   = "RootRouter"
	SplashPath = "RootRouter/SplashRouter"
	TabsPath   = "RootRouter/TabsRouter"
	TabAPath   = "RootRouter/TabsRouter/TabARouter"
	TabBPath   = "RootRouter/TabsRouter/TabBRouter"
	TabCPath   = "RootRouter/TabsRouter/TabCRouter"
	TabDPath   = "RootRouter/TabsRouter/TabDRouter"
)

// Paths lists every router of the standard hierarchy, parents first.
func Paths() []string {
	return []string{RootPath, SplashPath, TabsPath, TabAPath, TabBPath, TabCPath, TabDPath}
}

// Empty is the encoding of an empty stack.
const Empty = "[]"

// Inbox is a chat stack showing only the inbox.
func Inbox() string {
	return Entries(Entry("inbox", nil))
}

// Conversation is a chat stack with a thread above the inbox.
func Conversation(thread int) string {
	return Entries(Entry("inbox", nil), Entry("conversation", map[string]int{"thread_id": thread}))
}

// Transportation is a TabB stack showing the given modes in order.
func Transportation(types ...string) string {
	entries := make([]string, len(types))
	for i, t := range types {
		entries[i] = Entry("transportation", map[string]string{"type": t})
	}
	return Entries(entries...)
}

// Hierarchy adds an empty stack for every router of the standard
// hierarchy. Stacks added afterwards replace them.
func (b *Builder) Hierarchy() *Builder {
	for _, p := range Paths() {
		b.WithStack(p, Empty)
	}
	return b
}
