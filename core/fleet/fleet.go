// Package fleet keeps track of the client attempts that are still in flight.
// A Fleet is not safe for concurrent use. It is owned by the dispatcher.
package fleet

import (
	"errors"

	"github.com/nextdhcp/dhcpester/core/client"
)

// ErrDuplicateIdentity is returned by Add if an attempt for the same
// hardware address is already in flight
var ErrDuplicateIdentity = errors.New("identity already in flight")

// Fleet is an ordered collection of live attempts
type Fleet struct {
	attempts   []*client.Attempt
	identities map[string]struct{}
}

// New returns an empty fleet
func New() *Fleet {
	return &Fleet{
		identities: make(map[string]struct{}),
	}
}

// Add appends a to the fleet
func (f *Fleet) Add(a *client.Attempt) error {
	key := a.HwAddr().String()
	if _, ok := f.identities[key]; ok {
		return ErrDuplicateIdentity
	}

	f.identities[key] = struct{}{}
	f.attempts = append(f.attempts, a)

	return nil
}

// Lookup returns the first attempt whose current transaction ID is xid
// or nil
func (f *Fleet) Lookup(xid uint32) *client.Attempt {
	for _, a := range f.attempts {
		if a.XID() == xid {
			return a
		}
	}

	return nil
}

// Remove removes a from the fleet and reports whether it was a member
func (f *Fleet) Remove(a *client.Attempt) bool {
	for idx, candidate := range f.attempts {
		if candidate != a {
			continue
		}

		f.attempts = append(f.attempts[:idx], f.attempts[idx+1:]...)
		delete(f.identities, a.HwAddr().String())

		return true
	}

	return false
}

// Len returns the number of live attempts
func (f *Fleet) Len() int {
	return len(f.attempts)
}

// Attempts returns a copy of all live attempts in insertion order
func (f *Fleet) Attempts() []*client.Attempt {
	res := make([]*client.Attempt, len(f.attempts))
	copy(res, f.attempts)
	return res
}
