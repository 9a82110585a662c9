package identity

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// NetworkExtender resolves a network code to its extended (archive
// directory) form for a given year, as required by the SDSbynet layout.
// The source keeps this table external (it is a lookup service or static
// file the collector does not own); callers supply an implementation.
type NetworkExtender interface {
	Extend(network, year string) (string, error)
}

// Resolver maps between a StreamID and its filesystem representation under
// one configured Layout.
type Resolver struct {
	Layout Layout
	Root   string

	// Extender is consulted only under SDSbynet. May be nil for ODC/SDS.
	Extender NetworkExtender
}

// NewResolver builds a Resolver for the given layout and archive root.
func NewResolver(layout Layout, root string, extender NetworkExtender) (*Resolver, error) {
	if !ValidLayout(layout) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, layout)
	}
	return &Resolver{Layout: layout, Root: root, Extender: extender}, nil
}

// Parse derives a StreamID from a bare basename, per the Resolver's layout.
func (r *Resolver) Parse(basename string) (StreamID, error) {
	switch r.Layout {
	case ODC:
		return parseODC(basename)
	case SDS, SDSbynet:
		return parseSDS(basename)
	default:
		return StreamID{}, fmt.Errorf("%w: %q", ErrUnknownLayout, r.Layout)
	}
}

func parseODC(basename string) (StreamID, error) {
	fields := strings.Split(basename, ".")
	if len(fields) != 5 {
		return StreamID{}, fmt.Errorf("%w: ODC basename %q wants 5 dot-fields, got %d", ErrMalformedBasename, basename, len(fields))
	}
	return StreamID{
		Station:   fields[0],
		Channel:   fields[1],
		Network:   fields[2],
		Year:      fields[3],
		JulianDay: fields[4],
	}, nil
}

func parseSDS(basename string) (StreamID, error) {
	fields := strings.Split(basename, ".")
	if len(fields) != 7 {
		return StreamID{}, fmt.Errorf("%w: SDS basename %q wants 7 dot-fields, got %d", ErrMalformedBasename, basename, len(fields))
	}
	return StreamID{
		Network:   fields[0],
		Station:   fields[1],
		Location:  fields[2],
		Channel:   fields[3],
		DataType:  fields[4],
		Year:      fields[5],
		JulianDay: fields[6],
	}, nil
}

func toBasename(l Layout, s StreamID) (string, error) {
	switch l {
	case ODC:
		return fmt.Sprintf("%s.%s.%s.%s.%s", s.Station, s.Channel, s.Network, s.Year, s.JulianDay), nil
	case SDS, SDSbynet:
		return fmt.Sprintf("%s.%s.%s.%s.%s.%s.%s", s.Network, s.Station, s.Location, s.Channel, s.DataType, s.Year, s.JulianDay), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLayout, l)
	}
}

// ToPath builds the full filesystem path for a StreamID under the
// Resolver's layout and root.
func (r *Resolver) ToPath(s StreamID) (string, error) {
	basename, err := toBasename(r.Layout, s)
	if err != nil {
		return "", err
	}
	switch r.Layout {
	case ODC:
		return filepath.Join(r.Root, s.Year, s.JulianDay, basename), nil
	case SDS:
		return filepath.Join(r.Root, s.Year, s.Network, s.Station, s.Channel+"."+s.DataType, basename), nil
	case SDSbynet:
		if r.Extender == nil {
			return "", fmt.Errorf("%w: no network extender configured", ErrUnextendableNetwork)
		}
		extended, err := r.Extender.Extend(s.Network, s.Year)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnextendableNetwork, err)
		}
		return filepath.Join(r.Root, extended, s.Year, s.Network, s.Station, s.Channel+"."+s.DataType, basename), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLayout, r.Layout)
	}
}

// Shift returns a new StreamID whose Year/JulianDay are adjusted by days
// (positive or negative), with calendar-correct rollover across month and
// year boundaries.
func Shift(s StreamID, days int) (StreamID, error) {
	t, err := toTime(s.Year, s.JulianDay)
	if err != nil {
		return StreamID{}, err
	}
	t = t.AddDate(0, 0, days)
	shifted := s
	shifted.Year = fmt.Sprintf("%04d", t.Year())
	shifted.JulianDay = fmt.Sprintf("%03d", t.YearDay())
	return shifted, nil
}

func toTime(year, julianDay string) (time.Time, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad year %q: %v", ErrMalformedBasename, year, err)
	}
	jd, err := strconv.Atoi(julianDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad julian day %q: %v", ErrMalformedBasename, julianDay, err)
	}
	return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, jd-1), nil
}

// DayStart returns the UTC instant at the start of the StreamID's day.
func DayStart(s StreamID) (time.Time, error) {
	return toTime(s.Year, s.JulianDay)
}
