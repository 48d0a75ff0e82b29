// Package cyberfocus assembles components into a turn based simulation.
// Every cycle the registered components read the previous broadcast,
// update, emit candidate elements, and the arbiter picks one of them as the
// focus of the next cycle.
package cyberfocus

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/voodooEntity/cyberfocus/src/system/archivist"
	"github.com/voodooEntity/cyberfocus/src/system/cerebrum"
	"github.com/voodooEntity/cyberfocus/src/system/interfaces"
	"github.com/voodooEntity/cyberfocus/src/system/observer"
)

type Settings struct {
	// Ident names the run. A random one is generated when empty.
	Ident string
	// Seed feeds the single generator behind every random choice.
	Seed       int64
	LogLevel   int
	DebugLevel int
	Logger     interfaces.LoggerInterface
	// History records every cycle into a gits backed memory.
	History bool
}

type Cyberfocus struct {
	ident    string
	settings Settings
	log      *archivist.Archivist
	registry *cerebrum.Registry
	strategy *cerebrum.Strategy
	memory   *cerebrum.Memory
	engine   *cerebrum.Engine
}

func New(settings Settings) *Cyberfocus {
	ident := settings.Ident
	if ident == "" {
		ident = "run-" + uuid.New().String()[:8]
	}

	conf := &archivist.Config{
		Logger:     settings.Logger,
		LogLevel:   settings.LogLevel,
		DebugLevel: settings.DebugLevel,
		Prefix:     ident,
	}
	archivist.ApplyEnv(conf)
	logger := archivist.New(conf)

	cf := &Cyberfocus{
		ident:    ident,
		settings: settings,
		log:      logger,
		registry: cerebrum.NewRegistry(),
	}
	if settings.History {
		cf.memory = cerebrum.NewMemory(ident+"-"+uuid.New().String(), logger)
	}
	logger.Info("Cyberfocus instance created")
	return cf
}

// RegisterComponent adds a component. Components run in registration
// order; registering after Start is rejected.
func (cf *Cyberfocus) RegisterComponent(name string, component interfaces.ComponentInterface) error {
	if cf.engine != nil {
		return fmt.Errorf("register %q: %w", name, cerebrum.ErrAlreadyStarted)
	}
	if err := cf.registry.Register(name, component); err != nil {
		return err
	}
	cf.log.Debug(archivist.DEBUG_LEVEL_TRACE, "registered component ", name)
	return nil
}

// SetStrategy sets the initial strategy before Start. Once running, it
// queues a switch for the next cycle boundary. Either way the strategy
// starts from its base priorities.
func (cf *Cyberfocus) SetStrategy(strategy *cerebrum.Strategy) {
	if cf.engine != nil {
		cf.engine.SwitchStrategy(strategy)
		return
	}
	if strategy != nil {
		strategy.Reset()
	}
	cf.strategy = strategy
}

// Start builds the engine. Calling it again returns the same engine.
func (cf *Cyberfocus) Start() *cerebrum.Engine {
	if cf.engine == nil {
		cf.engine = cerebrum.NewEngine(cf.registry, cf.strategy, cf.settings.Seed, cf.memory, cf.log)
		cf.log.Info("Engine started with components", cf.registry.Names())
	}
	return cf.engine
}

// GetObserverInstance returns an observer driving the engine, starting it
// if needed. See observer.New for the arguments.
func (cf *Cyberfocus) GetObserverInstance(maxCycles int, done func() bool, cb func(engine *cerebrum.Engine)) *observer.Observer {
	return observer.New(cf.Start(), maxCycles, done, cb, cf.log)
}

func (cf *Cyberfocus) Ident() string {
	return cf.ident
}

func (cf *Cyberfocus) Log() *archivist.Archivist {
	return cf.log
}

// Memory is nil unless Settings.History is set.
func (cf *Cyberfocus) Memory() *cerebrum.Memory {
	return cf.memory
}
