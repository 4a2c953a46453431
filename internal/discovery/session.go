package discovery

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/lanprobe/internal/logging"
)

// Backoff bounds between consecutive failing receives
const (
	readErrorInitialBackoff = 10 * time.Millisecond
	readErrorMaxBackoff     = 500 * time.Millisecond
)

// Session is one discovery round: a bound socket that has sent its probe
// and is collecting replies. Sessions are single use.
type Session struct {
	cfg     Config
	id      string
	conn    *net.UDPConn
	read    func([]byte) (int, *net.UDPAddr, error)
	log     *zap.Logger
	metrics *Metrics

	ctx      context.Context
	stopCtx  func() bool
	opened   time.Time
	deadline time.Time // DeadlineGlobal only

	consumed  bool
	err       error
	closeOnce sync.Once
	closeErr  error
}

// Open binds the socket, enables broadcast and sends the probe.
// Any failure is a *SetupError and leaves no socket behind.
// Cancelling ctx closes the socket, which ends Responses with ctx.Err().
func Open(ctx context.Context, cfg Config) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		id:      uuid.NewString(),
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		ctx:     ctx,
	}
	if s.log == nil {
		s.log = logging.GetLogger()
	}
	s.log = s.log.With(zap.String("session_id", s.id))

	laddr, err := net.ResolveUDPAddr("udp4", cfg.ListenAddr)
	if err != nil {
		return nil, &SetupError{Stage: StageBind, Err: err}
	}

	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, &SetupError{Stage: StageBind, Err: err}
	}
	s.conn = conn
	s.read = conn.ReadFromUDP

	if err := s.enableBroadcast(); err != nil {
		conn.Close()
		return nil, &SetupError{Stage: StageBroadcast, Err: err}
	}

	target := cfg.TargetAddr()
	if _, err := conn.WriteToUDP([]byte(probe), target); err != nil {
		conn.Close()
		return nil, &SetupError{Stage: StageSend, Err: err}
	}
	s.opened = time.Now()
	s.metrics.probeSent()
	logging.LogProbe(s.log, target.String(), s.LocalAddr().String(), len(probe))

	if cfg.Deadline == DeadlineGlobal {
		s.deadline = s.opened.Add(cfg.Timeout)
	}
	if err := conn.SetReadDeadline(s.nextDeadline()); err != nil {
		conn.Close()
		return nil, &SetupError{Stage: StageTimeout, Err: err}
	}

	s.stopCtx = context.AfterFunc(ctx, func() {
		s.closeConn()
	})

	return s, nil
}

func (s *Session) enableBroadcast() error {
	rc, err := s.conn.SyscallConn()
	if err != nil {
		return err
	}
	return setBroadcast(rc)
}

// nextDeadline returns the read deadline for the next receive call
func (s *Session) nextDeadline() time.Time {
	if s.cfg.Deadline == DeadlineGlobal {
		return s.deadline
	}
	return time.Now().Add(s.cfg.Timeout)
}

// ID returns the session identifier used in log output
func (s *Session) ID() string {
	return s.id
}

// LocalAddr returns the bound local address
func (s *Session) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Responses returns the replies to the probe in receipt order. The
// sequence ends when a receive times out; malformed replies are skipped.
// Only the first call yields anything.
func (s *Session) Responses() iter.Seq[Response] {
	return func(yield func(Response) bool) {
		if s.consumed {
			return
		}
		s.consumed = true
		defer func() {
			s.metrics.sessionDone(time.Since(s.opened))
		}()

		buf := make([]byte, s.cfg.BufferSize)
		guard := newReadErrorGuard(s.cfg.MaxReadErrors)

		for {
			if err := s.conn.SetReadDeadline(s.nextDeadline()); err != nil {
				s.err = s.stopReason(fmt.Errorf("failed to set receive timeout: %w", err))
				return
			}

			n, src, err := s.read(buf)
			if err != nil {
				if s.ctx.Err() != nil {
					s.err = s.ctx.Err()
					return
				}

				if IsTimeout(err) {
					s.log.Debug("Discovery window closed",
						zap.Duration("elapsed", time.Since(s.opened)),
					)
					return
				}

				s.metrics.readError()
				wait, giveUp := guard.failed()
				s.log.Warn("Receive failed",
					zap.Error(err),
					zap.Int("consecutive", guard.count),
					zap.Duration("backoff", wait),
				)
				if giveUp {
					s.err = &ReceiveError{Attempts: guard.count, Err: err}
					return
				}
				if !s.sleep(wait) {
					s.err = s.ctx.Err()
					return
				}
				continue
			}
			guard.succeeded()

			s.metrics.datagram(n)
			logging.LogDatagram(s.log, src.String(), buf[:n])

			rec, perr := ParseRecordError(buf[:n])
			if perr != nil {
				var pe *ParseError
				if errors.As(perr, &pe) {
					s.metrics.parseFailure(pe.Reason)
				}
				s.log.Debug("Dropped malformed reply",
					zap.String("source", src.String()),
					zap.Error(perr),
				)
				continue
			}
			s.metrics.record()

			if !yield(Response{Record: rec, Source: src}) {
				return
			}
		}
	}
}

// stopReason prefers the context error when the socket was closed by
// cancellation.
func (s *Session) stopReason(err error) error {
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}
	return err
}

func (s *Session) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Err returns why Responses stopped early. It is nil when the session ended
// on its receive timeout.
func (s *Session) Err() error {
	return s.err
}

// Close releases the socket. It is safe to call more than once.
func (s *Session) Close() error {
	if s.stopCtx != nil {
		s.stopCtx()
	}
	return s.closeConn()
}

func (s *Session) closeConn() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// Run opens a session, passes every response to emit and closes it.
// An error from emit stops the session and is returned.
func Run(ctx context.Context, cfg Config, emit func(Response) error) error {
	s, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	for resp := range s.Responses() {
		if err := emit(resp); err != nil {
			return err
		}
	}
	return s.Err()
}

// readErrorGuard limits consecutive non-timeout receive errors and spaces
// retries with exponential backoff.
type readErrorGuard struct {
	max     int
	count   int
	backoff backoff.BackOff
}

func newReadErrorGuard(limit int) *readErrorGuard {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = readErrorInitialBackoff
	exp.MaxInterval = readErrorMaxBackoff
	exp.MaxElapsedTime = 0

	return &readErrorGuard{
		max:     limit,
		backoff: backoff.WithMaxRetries(exp, uint64(limit)),
	}
}

// failed records an error and returns the wait before the next receive,
// or giveUp once the limit is reached.
func (g *readErrorGuard) failed() (wait time.Duration, giveUp bool) {
	g.count++
	if g.count >= g.max {
		return 0, true
	}

	wait = g.backoff.NextBackOff()
	if wait == backoff.Stop {
		return 0, true
	}
	return wait, false
}

func (g *readErrorGuard) succeeded() {
	if g.count == 0 {
		return
	}
	g.count = 0
	g.backoff.Reset()
}
