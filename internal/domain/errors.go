package domain

import "errors"

// ErrFatal marks an error as unrecoverable. The retry loop never retries an
// error wrapping ErrFatal; it propagates immediately and aborts the whole
// flush. Adapters wrap precondition violations (missing stream, malformed
// configuration) with it.
var ErrFatal = errors.New("unrecoverable sink error")
