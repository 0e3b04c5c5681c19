package encoder

import (
	"context"

	"qeicode-go/drivers/qei"
	"qeicode-go/errcode"
	"qeicode-go/services/hal/internal/core"
	"qeicode-go/types"
	"qeicode-go/x/mathx"
)

// Device publishes one quadrature counter as an encoder capability.
type Device struct {
	id    string
	timer core.ResourceID
	ch    qei.Channels
	cpr   uint32
	ctr   core.Counter
	reg   core.ResourceRegistry
	pub   core.EventEmitter
	addr  core.CapAddr

	t16 qei.Tracker[uint16]
	t32 qei.Tracker[uint32]
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain: d.addr.Domain,
		Kind:   types.KindEncoder,
		Name:   d.addr.Name,
		Info: types.Info{
			SchemaVersion: 1,
			Driver:        "qei",
			Detail: types.EncoderInfo{
				Timer:        string(d.timer),
				Width:        d.ctr.Width(),
				Channels:     d.ch.String(),
				CountsPerRev: d.cpr,
			},
		},
	}}
}

// Init takes the first sample as the position origin and publishes it.
func (d *Device) Init(ctx context.Context) error {
	d.zero()
	d.emit()
	return nil
}

func (d *Device) Control(_ core.CapAddr, method string, payload any) (core.EnqueueResult, error) {
	switch method {
	case "read":
		if !d.emit() {
			return core.EnqueueResult{OK: false, Error: errcode.Busy}, nil
		}
		return core.EnqueueResult{OK: true}, nil
	case "zero":
		d.zero()
		d.emit()
		return core.EnqueueResult{OK: true}, nil
	default:
		return core.EnqueueResult{OK: false, Error: errcode.Unsupported}, nil
	}
}

// Close releases the counter back to the registry.
func (d *Device) Close() error {
	if d.ctr != nil {
		d.reg.ReleaseCounter(d.id, d.timer)
		d.ctr = nil
	}
	return nil
}

func (d *Device) zero() {
	c, _ := d.ctr.Sample()
	if d.ctr.Width() == 16 {
		d.t16.Zero(uint16(c))
	} else {
		d.t32.Zero(c)
	}
}

// Value samples the counter and advances the position.
func (d *Device) Value() types.EncoderValue {
	c, dir := d.ctr.Sample()
	var pos, delta int64
	if d.ctr.Width() == 16 {
		pos, delta = d.t16.Observe(uint16(c))
	} else {
		pos, delta = d.t32.Observe(c)
	}
	v := types.EncoderValue{Count: c, Direction: dir.String(), Position: pos, Delta: delta}
	if d.cpr > 0 {
		v.Revolutions = mathx.FloorDiv(pos, int64(d.cpr))
	}
	return v
}

func (d *Device) emit() bool {
	return d.pub.Emit(core.Event{Addr: d.addr, Payload: d.Value()})
}
