package core

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	// ErrStaleBlock means block hashes supplied by the client do not match
	// the catalogued ones: the client holds a stale or forked view.
	ErrStaleBlock  = errors.New("block hashes do not match known block")
	ErrUnavailable = errors.New("ledger is unavailable")
)
