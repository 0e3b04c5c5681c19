package core

import "qeicode-go/drivers/qei"

type ResourceID string // e.g. "tim3", "enc0"

// Counter is a claimed quadrature counter. Hardware timers and software
// decoders both appear as a Counter.
type Counter interface {
	Width() uint8
	// Sample returns the raw count (wrapping at 2^Width) and the direction,
	// read together.
	Sample() (count uint32, dir qei.Direction)
}

// ResourceRegistry arbitrates exclusive use of counters between devices.
type ResourceRegistry interface {
	// ClaimCounter configures resource id for the given channel binding.
	// It fails with errcode.UnknownTimer, errcode.PeripheralInUse or
	// errcode.InvalidBinding.
	ClaimCounter(devID string, id ResourceID, ch qei.Channels) (Counter, error)
	ReleaseCounter(devID string, id ResourceID)
}

// ---- Device → HAL telemetry ----
// Err, when non-empty, causes HAL to publish only .../status=degraded.

type Event struct {
	Addr    CapAddr
	Payload any
	TSms    int64
	Err     string
}

type EventEmitter interface {
	// Emit must be non-blocking; false indicates a drop under pressure.
	Emit(ev Event) bool
}

// ---- HAL-injected resources ----

type Resources struct {
	Reg ResourceRegistry
	Pub EventEmitter // provided by HAL
}
