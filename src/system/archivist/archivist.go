package archivist

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/voodooEntity/cyberfocus/src/system/interfaces"
)

const (
	LEVEL_DEBUG   = 1
	LEVEL_INFO    = 2
	LEVEL_WARNING = 3
	LEVEL_ERROR   = 4
	LEVEL_FATAL   = 5
)

// Constants for granular debug levels
const (
	DEBUG_LEVEL_TRACE  = iota + 1 // cycle phases and arbitration decisions
	DEBUG_LEVEL_INFO              // per component progress
	DEBUG_LEVEL_DETAIL            // candidate sets and priority tables
	DEBUG_LEVEL_DUMP              // whole content dumps
	DEBUG_LEVEL_MAX
)

// EnvLogLevel overrides the configured level when set, see ApplyEnv.
const EnvLogLevel = "CYBERFOCUS_LOG_LEVEL"

type Archivist struct {
	logFlags   [5]bool
	logger     interfaces.LoggerInterface
	debugLevel int
	prefix     string
}

type Config struct {
	Logger     interfaces.LoggerInterface
	LogLevel   int
	DebugLevel int
	// Prefix is prepended to every line, the engine uses the run ident.
	Prefix string
}

func New(conf *Config) *Archivist {
	archivist := &Archivist{
		logFlags: [5]bool{false, true, true, true, true},
		prefix:   conf.Prefix,
	}

	// without a logger we default to a zerolog console writer on stdout
	archivist.SetLogger(conf.Logger)
	archivist.SetLogLevel(conf.LogLevel)

	// debug verbosity only counts when we actually log debug
	if conf.LogLevel == LEVEL_DEBUG {
		archivist.SetDebugLevel(conf.DebugLevel)
	}

	return archivist
}

// Discard returns an archivist that drops everything, handy for tests.
func Discard() *Archivist {
	return New(&Config{Logger: NewConsoleSink(io.Discard, ""), LogLevel: LEVEL_FATAL})
}

// ApplyEnv reads EnvLogLevel and rewrites the level fields of conf.
// Unknown or empty values leave conf untouched.
func ApplyEnv(conf *Config) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))) {
	case "trace":
		conf.LogLevel = LEVEL_DEBUG
		conf.DebugLevel = DEBUG_LEVEL_MAX
	case "debug":
		conf.LogLevel = LEVEL_DEBUG
		if conf.DebugLevel == 0 {
			conf.DebugLevel = DEBUG_LEVEL_TRACE
		}
	case "info":
		conf.LogLevel = LEVEL_INFO
	case "warn", "warning":
		conf.LogLevel = LEVEL_WARNING
	case "error":
		conf.LogLevel = LEVEL_ERROR
	case "fatal":
		conf.LogLevel = LEVEL_FATAL
	}
}

func (a *Archivist) store(message string, stype string, dump bool, formatted bool, params []interface{}) {
	// dispatch the caller file+line number
	_, file, line, _ := runtime.Caller(2)
	arrPackagePath := strings.Split(file, "/")
	packageFile := arrPackagePath[len(arrPackagePath)-1]

	logLine := stype + "|" + packageFile + "#" + strconv.Itoa(line) + "|"
	if a.prefix != "" {
		logLine = a.prefix + "|" + logLine
	}
	if dump {
		if formatted {
			logLine = logLine + fmt.Sprintf(message, params...)
		} else {
			logLine = logLine + message + "|" + fmt.Sprintf("%+v", params)
		}
	} else {
		logLine = logLine + message
	}

	a.logger.Println(logLine)
}

func (a *Archivist) Error(message string, params ...interface{}) {
	if a.logFlags[LEVEL_ERROR-1] {
		a.store(message, "error", len(params) > 0, false, params)
	}
}

func (a *Archivist) ErrorF(message string, params ...interface{}) {
	if a.logFlags[LEVEL_ERROR-1] {
		a.store(message, "error", true, true, params)
	}
}

func (a *Archivist) Fatal(message string, params ...interface{}) {
	if a.logFlags[LEVEL_FATAL-1] {
		a.store(message, "fatal", len(params) > 0, false, params)
	}
}

func (a *Archivist) Info(message string, params ...interface{}) {
	if a.logFlags[LEVEL_INFO-1] {
		a.store(message, "info", len(params) > 0, false, params)
	}
}

func (a *Archivist) InfoF(message string, params ...interface{}) {
	if a.logFlags[LEVEL_INFO-1] {
		a.store(message, "info", true, true, params)
	}
}

func (a *Archivist) Warning(message string, params ...interface{}) {
	if a.logFlags[LEVEL_WARNING-1] {
		a.store(message, "warning", len(params) > 0, false, params)
	}
}

func (a *Archivist) WarningF(message string, params ...interface{}) {
	if a.logFlags[LEVEL_WARNING-1] {
		a.store(message, "warning", true, true, params)
	}
}

func (a *Archivist) Debug(level int, message string, params ...interface{}) {
	if a.logFlags[LEVEL_DEBUG-1] && level <= a.debugLevel {
		a.store(message, "debug", len(params) > 0, false, params)
	}
}

func (a *Archivist) DebugF(level int, message string, params ...interface{}) {
	if a.logFlags[LEVEL_DEBUG-1] && level <= a.debugLevel {
		a.store(message, "debug", true, true, params)
	}
}

// DebugEnabled reports whether a Debug call at level would be written,
// callers use it to skip building expensive dumps.
func (a *Archivist) DebugEnabled(level int) bool {
	return a.logFlags[LEVEL_DEBUG-1] && level <= a.debugLevel
}

func (a *Archivist) SetLogLevel(logLevel int) {
	// uninitialized means warning
	if logLevel == 0 {
		logLevel = LEVEL_WARNING
	}

	if logLevel >= LEVEL_DEBUG && logLevel <= LEVEL_FATAL {
		for index := range a.logFlags {
			a.logFlags[index] = logLevel-1 <= index
		}
	} else {
		a.Error("Given LOG_LEVEL is unknown, defaulting to LEVEL_WARNING provided was: ", logLevel)
		a.SetLogLevel(LEVEL_WARNING)
	}
}

func (a *Archivist) SetDebugLevel(level int) {
	if level < 0 {
		level = 0
	}
	a.debugLevel = level
}

func (a *Archivist) SetLogger(logger interfaces.LoggerInterface) {
	if logger == nil {
		logger = NewConsoleSink(os.Stdout, "cyberfocus")
	}
	a.logger = logger
}

// ConsoleSink forwards archivist lines to a zerolog logger.
type ConsoleSink struct {
	logger zerolog.Logger
}

// NewConsoleSink builds a zerolog console writer on out. app is attached as
// a field when non empty.
func NewConsoleSink(out io.Writer, app string) *ConsoleSink {
	ctx := zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    out != os.Stdout,
	}).With().Timestamp()
	if app != "" {
		ctx = ctx.Str("app", app)
	}
	return &ConsoleSink{logger: ctx.Logger()}
}

func (c *ConsoleSink) Println(v ...interface{}) {
	c.logger.Log().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}
