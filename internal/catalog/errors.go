package catalog

import "errors"

// ErrNotFound is returned when a lookup finds no matching document.
var ErrNotFound = errors.New("catalog: not found")

// ErrAlreadyExists is returned by the is-new guard when a daily granule
// for a fileId appears between classification and insert (§4.I guard).
var ErrAlreadyExists = errors.New("catalog: daily granule already exists for fileId")
