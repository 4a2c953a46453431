// Package logging provides structured logging for lanprobe.
//
// It wraps a package-level zap logger. Logging is silent unless a level is
// requested with --log-level, because stdout carries the device inventory and
// must stay parseable. When enabled, log lines are written to stderr in zap's
// console format:
//
//	2026-10-19T10:30:45.123+0200  INFO  Probe sent  {"session_id": "...", "target": "255.255.255.255:30303"}
//
// # Levels
//
//   - Debug: every received datagram with hex and ascii dumps, dropped replies
//   - Info: probe transmission
//   - Warn: receive errors that are being retried
//   - Error: setup failures
//
// # Usage
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
//	logging.LogDatagram(logging.GetLogger(), "192.168.1.20:30303", payload)
package logging
