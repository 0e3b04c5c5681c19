package qei

import (
	"qeicode-go/errcode"
	"qeicode-go/x/strx"
)

// Channels is the set of encoder inputs wired to the timer. The zero value
// NoChannels is not a legal binding and is rejected by New.
type Channels uint8

const (
	NoChannels Channels = iota
	Channel1Only
	Channel2Only
	BothChannels
)

// ChannelsFromPins maps the pin subsystem's per-channel wiring flags to a
// binding.
func ChannelsFromPins(c1, c2 bool) Channels {
	switch {
	case c1 && c2:
		return BothChannels
	case c1:
		return Channel1Only
	case c2:
		return Channel2Only
	}
	return NoChannels
}

// ParseChannels accepts "ch1", "ch2" and "both".
func ParseChannels(s string) (Channels, error) {
	switch strx.Lower(s) {
	case "ch1":
		return Channel1Only, nil
	case "ch2":
		return Channel2Only, nil
	case "both", "ch1+ch2":
		return BothChannels, nil
	}
	return NoChannels, errcode.InvalidBinding
}

func (c Channels) Valid() bool { return c >= Channel1Only && c <= BothChannels }
func (c Channels) Has1() bool  { return c == Channel1Only || c == BothChannels }
func (c Channels) Has2() bool  { return c == Channel2Only || c == BothChannels }

func (c Channels) String() string {
	switch c {
	case Channel1Only:
		return "ch1"
	case Channel2Only:
		return "ch2"
	case BothChannels:
		return "both"
	}
	return "none"
}

// mode is the slave-mode selection for the binding.
func (c Channels) mode() uint32 {
	switch c {
	case Channel1Only:
		return SMSEncoder1
	case Channel2Only:
		return SMSEncoder2
	case BothChannels:
		return SMSEncoder3
	}
	return 0
}
