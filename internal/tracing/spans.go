package tracing

// Span attribute keys.
const (
	AttrDispatchID   = "dispatch.id"
	AttrLinkKind     = "link.kind"
	AttrLinkURL      = "link.url"
	AttrLinkSource   = "link.source"
	AttrSection      = "route.section"
	AttrRouterPath   = "route.router_path"
	AttrStackDepth   = "route.stack_depth"
	AttrErrorMessage = "error.message"
	AttrSnapshotGUID = "state.snapshot_guid"
)

// Span names.
const (
	SpanDispatch  = "deeplink.dispatch"
	SpanSpoolFile = "spool.file"
	SpanStateSave = "state.save"
	SpanStateLoad = "state.restore"
)

// Event names for span events.
const (
	EventQueued     = "dispatch.queued"
	EventApplied    = "dispatch.applied"
	EventQueueClose = "dispatch.queue_closed"
)
