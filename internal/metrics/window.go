package metrics

import (
	"github.com/EIDA/wfcatalog/internal/archive"
	"github.com/EIDA/wfcatalog/internal/identity"
)

// BuildWindow computes the three-file neighbourhood for a target file
// already parsed into a StreamID, consulting the Layout Resolver for the
// previous and next day's paths and including them only if present on
// disk.
func BuildWindow(resolver *identity.Resolver, target *archive.File, id identity.StreamID) (Window, error) {
	w := Window{Target: target}

	prevID, err := identity.Shift(id, -1)
	if err != nil {
		return Window{}, err
	}
	prevPath, err := resolver.ToPath(prevID)
	if err == nil {
		if f := archive.NewFile(prevPath); f.Exists() {
			w.Prev = f
		}
	}

	nextID, err := identity.Shift(id, 1)
	if err != nil {
		return Window{}, err
	}
	nextPath, err := resolver.ToPath(nextID)
	if err == nil {
		if f := archive.NewFile(nextPath); f.Exists() {
			w.Next = f
		}
	}

	return w, nil
}
