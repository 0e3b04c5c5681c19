package types

// EncoderParams configures an "encoder" HAL device.
type EncoderParams struct {
	Timer        string `json:"timer"`                    // resource id: "tim2", "tim3", or a board-specific id
	Channels     string `json:"channels"`                 // "ch1" | "ch2" | "both"
	Domain       string `json:"domain,omitempty"`         // default "motion"
	Name         string `json:"name,omitempty"`           // default device id
	CountsPerRev uint32 `json:"counts_per_rev,omitempty"` // 0 = no revolution maths
}

// EncoderInfo is the retained info detail for an encoder capability.
type EncoderInfo struct {
	Timer        string `json:"timer"`
	Width        uint8  `json:"width"`
	Channels     string `json:"channels"`
	CountsPerRev uint32 `json:"counts_per_rev,omitempty"`
}

// EncoderValue is published on .../value.
type EncoderValue struct {
	Count       uint32 `json:"count"`     // raw counter, wraps at 2^width
	Direction   string `json:"direction"` // "up" | "down"
	Position    int64  `json:"position"`  // unwrapped counts since origin
	Delta       int64  `json:"delta"`     // counts since previous read
	Revolutions int64  `json:"revolutions,omitempty"`
}
