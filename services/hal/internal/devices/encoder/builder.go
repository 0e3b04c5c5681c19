package encoder

import (
	"context"

	"qeicode-go/drivers/qei"
	"qeicode-go/errcode"
	"qeicode-go/services/hal/internal/core"
	"qeicode-go/types"
	"qeicode-go/x/strx"
)

func init() { core.RegisterBuilder("encoder", builder{}) }

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, ok := in.Params.(types.EncoderParams)
	if !ok || p.Timer == "" {
		return nil, errcode.InvalidParams
	}
	ch, err := qei.ParseChannels(p.Channels)
	if err != nil {
		return nil, err
	}
	id := core.ResourceID(strx.Lower(p.Timer))
	ctr, err := in.Res.Reg.ClaimCounter(in.ID, id, ch)
	if err != nil {
		return nil, err
	}
	return &Device{
		id:    in.ID,
		timer: id,
		ch:    ch,
		cpr:   p.CountsPerRev,
		ctr:   ctr,
		reg:   in.Res.Reg,
		pub:   in.Res.Pub,
		addr: core.CapAddr{
			Domain: strx.Coalesce(p.Domain, "motion"),
			Kind:   string(types.KindEncoder),
			Name:   strx.Coalesce(p.Name, in.ID),
		},
	}, nil
}
