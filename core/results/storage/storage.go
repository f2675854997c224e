// Package storage persists the outcome of emulated client handshakes
package storage

import (
	"context"
	"net"
	"time"
)

// Result describes a completed DORA handshake of a single client
type Result struct {
	// HwAddr is the identity of the client
	HwAddr string `json:"hwaddr"`

	// IP is the address acknowledged by the server
	IP net.IP `json:"ip"`

	// Server is the address of the server that offered IP
	Server net.IP `json:"server"`

	// Attempts is the number of handshakes required, 1 if the client
	// has never been NAKed
	Attempts int `json:"attempts"`

	// Duration is the time between the first DISCOVER and the final ACK
	Duration time.Duration `json:"duration"`

	// Completed is the time the ACK was received
	Completed time.Time `json:"completed"`
}

// ResultStorage provides persistence for handshake results. Results
// are keyed by hardware address, storing a result for a known client
// replaces the previous one
type ResultStorage interface {
	// Put stores r
	Put(ctx context.Context, r Result) error

	// Get returns the result stored for hwaddr
	Get(ctx context.Context, hwaddr string) (Result, error)

	// List returns all stored results ordered by hardware address
	List(ctx context.Context) ([]Result, error)

	// Close releases all resources held by the storage
	Close() error
}
