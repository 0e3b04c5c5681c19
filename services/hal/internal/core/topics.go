package core

import "qeicode-go/bus"

func T(tokens ...string) bus.Topic { return bus.T(tokens...) }

func TopicConfigHAL() bus.Topic { return T("config", "hal") }
func TopicState() bus.Topic     { return T("hal", "state") }

// hal/cap/<domain>/<kind>/<name>/...
func capBase(a CapAddr) bus.Topic { return T("hal", "cap", a.Domain, a.Kind, a.Name) }

func CapInfo(a CapAddr) bus.Topic   { return capBase(a).Append("info") }
func CapStatus(a CapAddr) bus.Topic { return capBase(a).Append("status") }
func CapValue(a CapAddr) bus.Topic  { return capBase(a).Append("value") }

// hal/cap/<domain>/<kind>/<name>/control/<verb>
func CapCtrl(a CapAddr, verb string) bus.Topic { return capBase(a).Append("control", verb) }

// hal/cap/+/+/+/control/+
func ctrlWildcard() bus.Topic { return T("hal", "cap", "+", "+", "+", "control", "+") }
