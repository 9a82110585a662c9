// Package identity derives canonical stream identities from waveform
// filenames and resolves them to and from filesystem paths under one of
// the archive layouts a data center might use.
package identity

import "fmt"

// Layout names an on-disk archive convention.
type Layout string

const (
	ODC      Layout = "ODC"
	SDS      Layout = "SDS"
	SDSbynet Layout = "SDSbynet"
)

var validLayouts = map[Layout]bool{
	ODC:      true,
	SDS:      true,
	SDSbynet: true,
}

// ValidLayout reports whether l is a recognized layout name.
func ValidLayout(l Layout) bool {
	return validLayouts[l]
}

// StreamID is the canonical identity of a waveform stream-day: a
// (network, station, location, channel) tuple for a given year and julian
// day. DataType is populated under SDS and SDSbynet and empty under ODC.
type StreamID struct {
	Network  string
	Station  string
	Location string
	Channel  string
	DataType string
	Year     string
	JulianDay string
}

// FileID is the canonical basename this identity is derived from and is
// unique within the catalog.
func (s StreamID) FileID(l Layout) (string, error) {
	return toBasename(l, s)
}

// StreamKey is the (network, station, location, channel) tuple identifying
// a stream independent of day, used to group daily granules into a
// continuous series.
func (s StreamID) StreamKey() string {
	return fmt.Sprintf("%s.%s.%s.%s", s.Network, s.Station, s.Location, s.Channel)
}

// IsInfrasound reports whether the channel code ends in "DF", the PSD
// Pipeline's exclusion criterion.
func (s StreamID) IsInfrasound() bool {
	return len(s.Channel) >= 2 && s.Channel[len(s.Channel)-2:] == "DF"
}
