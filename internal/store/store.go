package store

import "errors"

// ErrNotFound is returned by writes and deletes that match no row. Reads
// return a nil value and a nil error instead.
var ErrNotFound = errors.New("not found")
