// Package rendezvous provides a single-use barrier for a fixed number of
// goroutines.
package rendezvous

import "sync"

// Barrier blocks every caller of Wait until the configured number of parties
// called it. Once all parties passed the barrier it is spent and must not be
// used again.
//
// Any write a party performs before calling Wait is visible to every other
// party after its own Wait returns.
type Barrier struct {
	parties int

	l       sync.Mutex
	arrived int
	done    chan struct{}
}

// New returns a barrier for the given number of parties
func New(parties int) *Barrier {
	if parties < 1 {
		panic("rendezvous: a barrier needs at least one party")
	}

	return &Barrier{
		parties: parties,
		done:    make(chan struct{}),
	}
}

// Wait blocks until all parties called Wait. It panics if the barrier
// has already been passed by all parties.
func (b *Barrier) Wait() {
	b.l.Lock()
	if b.arrived == b.parties {
		b.l.Unlock()
		panic("rendezvous: barrier already spent")
	}

	b.arrived++
	if b.arrived == b.parties {
		close(b.done)
	}
	b.l.Unlock()

	<-b.done
}

// Done returns a channel that is closed once all parties arrived
func (b *Barrier) Done() <-chan struct{} {
	return b.done
}

// Spent reports whether all parties already arrived
func (b *Barrier) Spent() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
