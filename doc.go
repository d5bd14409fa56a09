package vecseg

// This file documents a deliberate concurrency deviation from the
// reference store this module started from.
//
// Neither pkg/segment nor pkg/index hold an internal sync.RWMutex.
// Every exported method assumes single-writer access: callers that need
// concurrent mutation must serialize it themselves (a mutex, a channel,
// or a single owning goroutine). This segment never mutates package-level
// state, so distinct *segment.Segment values never contend with each
// other regardless of how many goroutines use them concurrently.
