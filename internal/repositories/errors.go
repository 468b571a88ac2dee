package repositories

import "errors"

// ErrNotFound is returned when a record does not exist or does not belong to
// the requesting user. Both cases are reported identically so that callers
// can never learn whether a foreign record exists.
var ErrNotFound = errors.New("record not found")
