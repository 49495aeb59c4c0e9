package shipper

import "errors"

var (
	ErrNotFound    = errors.New("shipper: record not found")
	ErrInvalidCID  = errors.New("shipper: invalid cid")
	ErrCIDMismatch = errors.New("shipper: cid mismatch")
	ErrImmutable   = errors.New("shipper: immutable record mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
