package quantum

import "errors"

// ErrInvalidParameter is returned when a key length, noise level or
// probability is out of range. Callers must reject the request before
// recording anything.
var ErrInvalidParameter = errors.New("invalid parameter")
