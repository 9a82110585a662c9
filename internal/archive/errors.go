package archive

import "errors"

// ErrNoInputMode is returned when zero or more than one Source Enumerator
// input mode is selected; exactly one is required.
var ErrNoInputMode = errors.New("archive: exactly one input mode must be selected")

// ErrInputNotFound is returned when an input mode's path does not exist
// or is not the kind of entry (file vs directory) it promised to be.
var ErrInputNotFound = errors.New("archive: input path does not exist")

// ErrEmptyWhitelist is returned by NewFilter when the whitelist is empty,
// a configuration error per §4.C.
var ErrEmptyWhitelist = errors.New("archive: filter whitelist must not be empty")

// ErrUnknownPastWindow is returned for an unrecognized --past shorthand.
var ErrUnknownPastWindow = errors.New("archive: unknown past window")
