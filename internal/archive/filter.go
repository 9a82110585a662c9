package archive

import "path/filepath"

// Filter applies whitelist/blacklist glob patterns to file basenames.
type Filter struct {
	White []string
	Black []string
}

// NewFilter validates and constructs a Filter. An empty whitelist is a
// configuration error.
func NewFilter(white, black []string) (*Filter, error) {
	if len(white) == 0 {
		return nil, ErrEmptyWhitelist
	}
	return &Filter{White: white, Black: black}, nil
}

// Pass reports whether basename matches at least one whitelist pattern and
// no blacklist pattern.
func (f *Filter) Pass(basename string) bool {
	matched := false
	for _, pat := range f.White {
		if ok, _ := filepath.Match(pat, basename); ok {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, pat := range f.Black {
		if ok, _ := filepath.Match(pat, basename); ok {
			return false
		}
	}
	return true
}

// Apply filters a candidate set, returning those that pass.
func (f *Filter) Apply(files []*File) []*File {
	out := make([]*File, 0, len(files))
	for _, file := range files {
		if f.Pass(file.Basename()) {
			out = append(out, file)
		}
	}
	return out
}
