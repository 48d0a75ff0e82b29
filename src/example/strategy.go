package example

import (
	"github.com/voodooEntity/cyberfocus/src/system/cerebrum"
	cfgb "github.com/voodooEntity/cyberfocus/src/system/configBuilder"
)

// Strategy is the demo policy: actions always win, objects age so they
// eventually beat a fixation, red objects are preferred among objects.
func Strategy() (*cerebrum.Strategy, error) {
	return cfgb.NewStrategy("demo").
		AddTier(cfgb.NewTier("actions").
			SetPriority(cfgb.PRIORITY_URGENT).
			AddDescriptor(cfgb.Named("action").SetInner("target", cfgb.Named("object")))).
		AddTier(cfgb.NewTier("objects").
			SetPriority(cfgb.PRIORITY_DEFAULT).
			SetStep(1).
			AddDescriptor(cfgb.Named("object").Set("color", "red")).
			AddDescriptor(cfgb.Named("object"))).
		AddTier(cfgb.NewTier("fixation").
			SetPriority(cfgb.PRIORITY_ELEVATED).
			AddDescriptor(cfgb.Named("fixation"))).
		Build()
}
