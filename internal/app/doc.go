// Package app is the composition root of the wallpaper agent.
//
// Run loads the configuration, builds the logger, the HTTP client, the
// configured source resolver, the downloader, the persisted state file and
// the platform wallpaper applier, and hands one pipeline run per cycle to the
// scheduler. The scheduler reports lifecycle events to a state.Store that the
// optional status view reads.
//
// Modes:
//
//	default   scheduler loop until the context is cancelled
//	Once      a single cycle; its error is returned unless it was cancelled
//	TUI       scheduler loop plus the status view; closing the view stops
//	          the scheduler
package app
