package observer

import (
	"github.com/voodooEntity/cyberfocus/src/system/archivist"
	"github.com/voodooEntity/cyberfocus/src/system/cerebrum"
)

// Observer drives an engine cycle by cycle until an endgame condition is
// reached. All conditions are evaluated between cycles only.
type Observer struct {
	engine       *cerebrum.Engine
	maxCycles    int
	done         func() bool
	callback     func(engine *cerebrum.Engine)
	log          *archivist.Archivist
	tickFunction *func(engine *cerebrum.Engine, logger *archivist.Archivist)
	tickRate     int
}

// New returns an observer for engine. maxCycles <= 0 means no cycle limit;
// done may be nil. cb runs once after the loop ended without error.
func New(engine *cerebrum.Engine, maxCycles int, done func() bool, cb func(engine *cerebrum.Engine), logger *archivist.Archivist) *Observer {
	logger.Info("Creating observer")
	return &Observer{
		engine:       engine,
		maxCycles:    maxCycles,
		done:         done,
		callback:     cb,
		log:          logger,
		tickRate:     25,
		tickFunction: nil,
	}
}

func (o *Observer) RegisterTickFunction(tickFn *func(engine *cerebrum.Engine, logger *archivist.Archivist)) {
	o.tickFunction = tickFn
}

// SetTickRate sets every how many cycles the tick function runs.
func (o *Observer) SetTickRate(tickRate int) {
	if tickRate < 1 {
		tickRate = 1
	}
	o.tickRate = tickRate
}

func (o *Observer) tick() {
	(*o.tickFunction)(o.engine, o.log)
}

// Loop steps the engine until ReachedEndgame. A failing cycle ends the loop
// immediately and its error is returned; the endgame callback is skipped.
func (o *Observer) Loop() error {
	for !o.ReachedEndgame() {
		if err := o.engine.Step(); err != nil {
			o.log.Error("Observer stopping on cycle error", err.Error())
			return err
		}
		o.log.Debug(archivist.DEBUG_LEVEL_MAX, "Observer looping:", o.engine.Cycle())
		if nil != o.tickFunction && o.engine.Cycle()%o.tickRate == 0 {
			o.tick()
		}
	}
	o.Endgame()
	o.log.Info("Engine halted at cycle", o.engine.Cycle())
	return nil
}

// ReachedEndgame reports whether the stop flag is raised, the cycle limit
// is reached or the done hook signals the environment finished.
func (o *Observer) ReachedEndgame() bool {
	if o.engine.Stopped() {
		return true
	}
	if o.maxCycles > 0 && o.engine.Cycle() >= o.maxCycles {
		return true
	}
	if o.done != nil && o.done() {
		return true
	}
	return false
}

func (o *Observer) Endgame() {
	o.log.Info("executing endgame")
	if o.callback != nil {
		o.callback(o.engine)
	}
}
