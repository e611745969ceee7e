// Package ui renders an optional terminal status view for the agent using
// Bubble Tea.
//
// The view is read-only. Once per refresh interval it copies a snapshot from
// the state.Store that the scheduler updates and reads the tail of the agent
// log file. It shows the scheduler phase, the next run, the outcome of the
// last cycle, the current image and the last error.
//
// Keys:
//
//	q, ctrl+c   quit
//	l           show or hide the log panel
//	T           cycle colour theme
//	?, h        help
//
// Theme and log panel visibility are remembered in the prefs file.
package ui
