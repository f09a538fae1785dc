package proxy

import "errors"

// ErrRouteMissing is logged at warning level when a DEL_ROUTE arrives for a
// subnet the proxy did not believe was installed; it is not fatal,
// per spec.md §7.
var ErrRouteMissing = errors.New("proxy: DEL_ROUTE for an untracked subnet")

// ErrUnknownReadySocket marks a readiness notification for a socket the
// loop isn't tracking in any pool. In this goroutine/channel
// implementation it surfaces as a defensive log line for a channel result
// whose socket has already been reclaimed (e.g. by the timeout sweep),
// rather than the fatal-per-iteration condition spec.md §7 describes for a
// poll-based implementation; either way it is recoverable and the loop
// continues.
var ErrUnknownReadySocket = errors.New("proxy: response from a socket not in any tracked pool")
