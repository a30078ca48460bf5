package script

import "errors"

// ErrClosed is returned when running a script on a closed Host.
var ErrClosed = errors.New("script host is closed")
