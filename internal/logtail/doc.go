// Package logtail reads the end of the agent's log file for the status view.
//
// Read seeks backwards from the end of the file in fixed chunks, so the cost
// depends on the number of lines requested and not on the file size. Parse
// splits lines written by slog's text handler into time, level, message and
// the remaining attributes; anything else is returned as a plain message.
package logtail
