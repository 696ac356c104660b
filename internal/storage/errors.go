// Package storage implements the graph CRUD and adjacency-maintenance
// layer (spec §4.3) over three internal/lsm.Tree column families, grounded
// on the teacher's pkg/storage/storage.go wrapper and pkg/storage/errors.go
// sentinel-error pattern.
package storage

import "errors"

// Sentinel errors, wrapped with fmt.Errorf("%w: ...") at each call site and
// checked with errors.Is/errors.As per the error taxonomy (spec §7).
var (
	ErrNotFound     = errors.New("storage: not found")
	ErrInvalid      = errors.New("storage: invalid")
	ErrKindMismatch = errors.New("storage: kind mismatch")
	ErrStorage      = errors.New("storage: engine error")
	ErrIO           = errors.New("storage: io error")
)
