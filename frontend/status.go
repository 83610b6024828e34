package frontend

import (
	"context"
	"time"
)

// CmdStatus is the poll-and-fetch completion handle for one in-flight
// backend command.
//
// Done is a side-effect-free, monotonic predicate: once true it stays true
// for the instance, and implementations must not report true before both
// captured streams are fully drained. OutErr is valid only after Done
// reports true; calling it earlier is a usage error.
type CmdStatus interface {
	Done() bool
	OutErr() (out, err string)
}

// Transport delivers one request message to the backend process and hands
// back the completion handle for it.
//
// The frontend never depends on transport internals, only on the CmdStatus
// contract, so alternate implementations (e.g. a persistent backend reused
// across commands) can sit behind the same interface.
type Transport interface {
	Send(ctx context.Context, cmd string, resultFile string, msg []byte) (CmdStatus, error)
}

// DefaultPollInterval is the fixed delay between Done checks.
//
// Busy-polling a status flag instead of blocking on the OS wait primitive
// keeps behavior uniform across transports and hosts; the interval bounds
// the added completion latency.
const DefaultPollInterval = time.Millisecond

// waitDone polls status at the given interval until it reports done.
// Once a request is sent the frontend waits unconditionally; a cancelled
// context reaches this loop indirectly, by making the transport terminate
// the backend process, which settles Done.
func waitDone(status CmdStatus, interval time.Duration) {
	for !status.Done() {
		time.Sleep(interval)
	}
}
