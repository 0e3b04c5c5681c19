package setups

import "qeicode-go/types"

// Host runs against the register simulator.
var Host = Setup{
	Name: "host",
	Plan: ResourcePlan{Timers: []string{"tim2", "tim3"}},
	Config: types.HALConfig{
		Devices: []types.HALDevice{{
			ID:   "spindle",
			Type: "encoder",
			Params: types.EncoderParams{
				Timer:        "tim3",
				Channels:     "both",
				CountsPerRev: 2048,
			},
		}},
		Pollers: []types.PollSpec{{
			Domain: "motion", Kind: types.KindEncoder, Name: "spindle",
			Verb: "read", IntervalMs: 100, JitterMs: 5,
		}},
	},
}

// NucleoF072 wires a rotary encoder to TIM3 (PA6/PA7) and a linear scale
// to TIM2 channel 1 only (PA0).
var NucleoF072 = Setup{
	Name: "nucleo_f072",
	Plan: ResourcePlan{Timers: []string{"tim2", "tim3"}},
	Config: types.HALConfig{
		Devices: []types.HALDevice{
			{ID: "knob", Type: "encoder", Params: types.EncoderParams{Timer: "tim3", Channels: "both", CountsPerRev: 96}},
			{ID: "scale", Type: "encoder", Params: types.EncoderParams{Timer: "tim2", Channels: "ch1"}},
		},
		Pollers: []types.PollSpec{
			{Domain: "motion", Kind: types.KindEncoder, Name: "knob", Verb: "read", IntervalMs: 50},
			{Domain: "motion", Kind: types.KindEncoder, Name: "scale", Verb: "read", IntervalMs: 200, JitterMs: 10},
		},
	},
}

// PicoQEI decodes an encoder on GP2/GP3 in software; the RP2040 has no
// encoder-mode timer.
var PicoQEI = Setup{
	Name: "pico_qei",
	Plan: ResourcePlan{SoftEncoders: []SoftEncoderPlan{{ID: "enc0", A: 2, B: 3, Precision: 4}}},
	Config: types.HALConfig{
		Devices: []types.HALDevice{{
			ID: "knob", Type: "encoder",
			Params: types.EncoderParams{Timer: "enc0", Channels: "both", CountsPerRev: 80},
		}},
		Pollers: []types.PollSpec{{
			Domain: "motion", Kind: types.KindEncoder, Name: "knob", Verb: "read", IntervalMs: 100,
		}},
	},
}
