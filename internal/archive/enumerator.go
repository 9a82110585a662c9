package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PastWindow is one of the named shorthand windows for the "past" mode.
type PastWindow string

const (
	PastDay        PastWindow = "day"
	PastYesterday  PastWindow = "yesterday"
	PastWeek       PastWindow = "week"
	PastFortnight  PastWindow = "fortnight"
	PastMonth      PastWindow = "month"
)

// pastWindowOffsets maps a PastWindow to the (startDaysBefore,
// endDaysBefore) pair from §4.B, where the day range is
// [now-start, now-end) expressed in days-before-now.
var pastWindowOffsets = map[PastWindow][2]int{
	PastDay:       {0, 1},
	PastYesterday: {1, 2},
	PastWeek:      {1, 8},
	PastFortnight: {1, 15},
	PastMonth:     {1, 32},
}

// Options selects exactly one Source Enumerator input mode.
type Options struct {
	File string   // single existing file
	List []string // literal array of paths, filtered to those that exist
	Dir  string   // recursive walk; a symlink is listed as an entry, and symlinked directories are not descended into
	Glob string   // shell-style glob

	Date  string // YYYY-MM-DD
	Range int    // optional, with Date

	Past PastWindow

	// Root is used by Date/Past modes, which collect
	// every file under Root whose basename ends with the target day's
	// "<year>.<jday>" suffix.
	Root string
}

func (o Options) selectedModes() int {
	n := 0
	if o.File != "" {
		n++
	}
	if o.List != nil {
		n++
	}
	if o.Dir != "" {
		n++
	}
	if o.Glob != "" {
		n++
	}
	if o.Date != "" {
		n++
	}
	if o.Past != "" {
		n++
	}
	return n
}

// Enumerate produces the unordered candidate file set for the configured
// mode.
func Enumerate(o Options) ([]*File, error) {
	if n := o.selectedModes(); n != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoInputMode, n)
	}
	switch {
	case o.File != "":
		return enumerateFile(o.File)
	case o.List != nil:
		return enumerateList(o.List), nil
	case o.Dir != "":
		return enumerateDir(o.Dir)
	case o.Glob != "":
		return enumerateGlob(o.Glob)
	case o.Date != "":
		return enumerateDate(o.Root, o.Date, o.Range)
	case o.Past != "":
		return enumeratePast(o.Root, o.Past)
	default:
		return nil, ErrNoInputMode
	}
}

func enumerateFile(path string) ([]*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	return []*File{NewFile(path)}, nil
}

func enumerateList(paths []string) []*File {
	var out []*File
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, NewFile(p))
		}
	}
	return out
}

func enumerateDir(root string) ([]*File, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, root)
	}
	var out []*File
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		out = append(out, NewFile(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive: walk %s: %w", root, err)
	}
	return out, nil
}

func enumerateGlob(pattern string) ([]*File, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("archive: glob %q: %w", pattern, err)
	}
	out := make([]*File, 0, len(matches))
	for _, m := range matches {
		out = append(out, NewFile(m))
	}
	return out, nil
}

// daySuffix is the "<year>.<jday>" trailer every basename ends with under
// both ODC and SDS layouts.
func daySuffix(t time.Time) string {
	return fmt.Sprintf(".%04d.%03d", t.Year(), t.YearDay())
}

func collectByDaySuffixes(root string, days []time.Time) ([]*File, error) {
	suffixes := make([]string, len(days))
	for i, d := range days {
		suffixes[i] = daySuffix(d)
	}
	var out []*File
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		for _, s := range suffixes {
			if strings.HasSuffix(base, s) {
				out = append(out, NewFile(path))
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive: walk %s: %w", root, err)
	}
	return out, nil
}

func enumerateDate(root, date string, rng int) ([]*File, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("archive: bad --date %q: %w", date, err)
	}
	var days []time.Time
	switch {
	case rng == 0:
		days = []time.Time{d}
	case rng > 0:
		for i := 0; i < rng; i++ {
			days = append(days, d.AddDate(0, 0, i))
		}
	default:
		for i := rng; i <= 0; i++ {
			days = append(days, d.AddDate(0, 0, i))
		}
	}
	return collectByDaySuffixes(root, days)
}

func enumeratePast(root string, window PastWindow) ([]*File, error) {
	offsets, ok := pastWindowOffsets[window]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPastWindow, window)
	}
	now := time.Now().UTC()
	var days []time.Time
	for daysBefore := offsets[1] - 1; daysBefore >= offsets[0]; daysBefore-- {
		days = append(days, now.AddDate(0, 0, -daysBefore))
	}
	return collectByDaySuffixes(root, days)
}
