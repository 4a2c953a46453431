// Package discovery implements the UDP broadcast discovery exchange used to
// inventory devices on the local network segment.
//
// A discovery round is a single Session: the client binds an ephemeral UDP
// socket, broadcasts the one-byte probe 'D' to 255.255.255.255 on the
// discovery port (30303 by default) and then collects replies until a receive
// times out.
//
// # Wire Format
//
// Devices answer with a short UTF-8 text record made of three fields
// separated by CR LF:
//
//	<name>\r\n<mac id>\r\n<status><in use address>
//
// The status is the first character of the third field; the rest of that
// field is the address currently owning the device (possibly empty).
//
// # Usage Example
//
//	cfg := discovery.DefaultConfig()
//	cfg.Timeout = 2 * time.Second
//
//	err := discovery.Run(ctx, cfg, func(r discovery.Response) error {
//	    fmt.Printf("%s %s at %s\n", r.Record.Name, r.Record.MACID, r.Source)
//	    return nil
//	})
//
// # Termination
//
// The receive timeout is the designed end-of-discovery signal, not an error.
// By default every receive call waits up to the full timeout, so a busy
// network keeps the session alive for as long as replies keep arriving.
// DeadlineGlobal bounds the whole session by a single deadline instead.
//
// Malformed replies are dropped without ending the session. Receive errors
// other than timeouts are retried with exponential backoff and abort the
// session once Config.MaxReadErrors consecutive failures have been seen.
//
// # Thread Safety
//
// A Session is meant to be driven by a single goroutine. ParseRecord is a
// pure function and is safe for concurrent use.
package discovery
