// Package hal exposes board counters as encoder capabilities on the bus.
//
// Configuration arrives as a types.HALConfig on config/hal. Each "encoder"
// device claims a counter from the board provider and publishes
// types.EncoderValue on hal/cap/<domain>/encoder/<name>/value when polled or
// when sent a "read" control.
package hal

import (
	"context"

	"qeicode-go/bus"
	"qeicode-go/services/hal/internal/core"
	"qeicode-go/services/hal/internal/provider"
	"qeicode-go/types"

	_ "qeicode-go/services/hal/internal/devices/encoder"
)

// Run serves the HAL on conn until ctx is done.
func Run(ctx context.Context, conn *bus.Connection) {
	core.NewHAL(conn, provider.NewResources()).Run(ctx)
}

// DefaultConfig is the configuration for the board selected at build time.
func DefaultConfig() types.HALConfig { return provider.InitialHALConfig() }

// Board returns the setup name selected at build time.
func Board() string { return provider.Selected.Name }

// Topic helpers for callers.
func TopicConfig() bus.Topic { return core.TopicConfigHAL() }
func TopicState() bus.Topic  { return core.TopicState() }

func EncoderValueTopic(domain, name string) bus.Topic {
	return core.CapValue(core.CapAddr{Domain: domain, Kind: string(types.KindEncoder), Name: name})
}

func EncoderControlTopic(domain, name, verb string) bus.Topic {
	return core.CapCtrl(core.CapAddr{Domain: domain, Kind: string(types.KindEncoder), Name: name}, verb)
}
