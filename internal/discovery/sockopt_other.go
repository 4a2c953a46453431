//go:build !unix && !windows

package discovery

import "syscall"

// No SO_BROADCAST knob on these platforms; the runtime's defaults apply.
func setBroadcast(rc syscall.RawConn) error {
	return nil
}
