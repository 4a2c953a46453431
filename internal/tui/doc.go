// Package tui provides the interactive discovery view started by
// "lanprobe --tui".
//
// The view runs one discovery session at a time in the background and adds a
// table row for every reply as it arrives. A spinner shows while the session
// is collecting replies; once the receive window closes the footer reports
// how many devices answered. Pressing r starts a fresh session (sessions are
// single use), q quits.
package tui
