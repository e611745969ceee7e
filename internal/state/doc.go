// Package state holds the two pieces of state the agent keeps.
//
// # Persisted state
//
// File stores the URL of the last image that was successfully applied as the
// desktop background. It is a single TOML document with one key:
//
//	last_url = "https://apod.nasa.gov/apod/image/2401/example.jpg"
//
// There is exactly one slot. Writes go through a temp file and a rename, so a
// crash leaves either the old value or the new one. A missing file reads as
// the empty string, which makes the next cycle treat any candidate as new.
// The file is never deleted by the agent.
//
// # Runtime status
//
// Store is an in-memory snapshot of scheduler activity shared between the
// worker goroutine and the optional status view:
//
//	Producer (scheduler):           Consumer (UI):
//	┌──────────────────────┐       ┌──────────────────┐
//	│ CycleStarted()       │       │                  │
//	│ RecordResult()       │──────→│ store.Snapshot() │
//	│ CycleFinished()      │(mutex)│      ↓           │
//	│ Scheduled()          │       │  render          │
//	└──────────────────────┘       └──────────────────┘
//
// Store satisfies scheduler.Observer. A failed cycle keeps the previous
// result fields and records the error; cancelled cycles are recorded but do
// not count toward ConsecutiveFailures.
//
// Snapshot returns a copy, including a wrapped copy of the last error, so the
// view never shares mutable data with the worker.
//
// The zero Store is ready to use:
//
//	store := &state.Store{}
package state
