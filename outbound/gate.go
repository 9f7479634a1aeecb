package outbound

import (
	"context"

	"code.hybscloud.com/atomix"
)

// sendGate admits exactly one send attempt into the header-commit critical
// section of an exchange. state is monotonic: 0 (not sent) to 1 (sent), set
// by a single CAS winner and never reverted. The latch publishes the
// winner's commit outcome so that racing body sends can order themselves
// after the header write instead of relying on transport enqueue order.
type sendGate struct {
	state     atomix.Uint32
	committed chan struct{}
	commitErr error
}

// tryWin claims the gate. Exactly one caller across all concurrent attempts
// observes true; everyone else, including later callers, observes false.
func (g *sendGate) tryWin() bool {
	return g.state.CompareAndSwap(0, 1)
}

// sent reports whether a winner has claimed the gate. True does not imply
// the commit has finished, only that it is owned.
func (g *sendGate) sent() bool {
	return g.state.Load() == 1
}

// finish publishes the winner's commit outcome. Called exactly once, by the
// winner, after CommitHeaders returns.
func (g *sendGate) finish(err error) {
	g.commitErr = err
	close(g.committed)
}

// wait blocks until the commit outcome is published and returns it, or
// returns ctx.Err() if the consumer detaches first.
func (g *sendGate) wait(ctx context.Context) error {
	select {
	case <-g.committed:
		return g.commitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
