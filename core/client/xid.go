package client

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/insomniacslk/dhcp/dhcpv4"
)

// MaxXID is the largest transaction ID drawn by DrawXID
const MaxXID = 900000000

// DrawXID returns a uniformly distributed transaction ID in 1..MaxXID
func DrawXID() uint32 {
	return uint32(rand.IntN(MaxXID)) + 1
}

// drawOther draws transaction IDs until it gets one that differs from old
func drawOther(draw func() uint32, old uint32) uint32 {
	for {
		if xid := draw(); xid != old {
			return xid
		}
	}
}

// ToTransactionID converts xid to its wire representation
func ToTransactionID(xid uint32) dhcpv4.TransactionID {
	var t dhcpv4.TransactionID
	binary.BigEndian.PutUint32(t[:], xid)
	return t
}

// FromTransactionID converts a wire transaction ID to an integer
func FromTransactionID(t dhcpv4.TransactionID) uint32 {
	return binary.BigEndian.Uint32(t[:])
}
