package ingest

import "errors"

// ErrForceRequiresUpdate is returned when Mode.Force is set without
// Mode.Update, a forbidden flag combination.
var ErrForceRequiresUpdate = errors.New("ingest: --force requires --update")
