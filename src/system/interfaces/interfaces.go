package interfaces

import "github.com/voodooEntity/cyberfocus/src/system/interlingua"

// LoggerInterface is the sink archivist writes formatted log lines to.
// *log.Logger satisfies it.
type LoggerInterface interface {
	Println(v ...interface{})
}

// ComponentInterface is the contract every module plugged into the cycle
// engine implements. Update may only mutate the component's own state and
// receives the broadcast of the previous cycle; Emit is a pure read of that
// state and returns the component's candidates for the current cycle.
type ComponentInterface interface {
	Update(focus *interlingua.Element, content interlingua.Content) error
	Emit() (interlingua.Content, error)
}
