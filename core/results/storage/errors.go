package storage

import (
	"errors"
	"fmt"
)

type (
	// ErrResultNotFound is returned when there is no result stored
	// for the client in question
	ErrResultNotFound struct {
		HwAddr string
	}
)

var (
	// ErrMissingHwAddr is returned by Put if a result does not carry
	// a hardware address
	ErrMissingHwAddr = errors.New("result without hardware address")
)

func (enf *ErrResultNotFound) Error() string {
	return fmt.Sprintf("no result for %s", enf.HwAddr)
}

// IsNotFound returns true if err is a result not found error
func IsNotFound(err error) bool {
	var enf *ErrResultNotFound
	return errors.As(err, &enf)
}
