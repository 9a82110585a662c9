package identity

import "errors"

// ErrUnknownLayout is returned when a Layout value is not one of the
// recognized constants.
var ErrUnknownLayout = errors.New("identity: unknown layout")

// ErrMalformedBasename is returned when a basename does not split into the
// field count a layout expects.
var ErrMalformedBasename = errors.New("identity: malformed basename")

// ErrUnextendableNetwork is returned by SDSbynet path construction when no
// extended network code can be resolved for (network, year).
var ErrUnextendableNetwork = errors.New("identity: network code has no extension for this year")
