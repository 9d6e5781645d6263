package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12
)

// Module tags. Trace/Debug output is gated per module so a noisy
// component can be silenced without losing Info and above.
const (
	DropMonitoring    = "drop_mod"    // distributor engine
	StoreMonitoring   = "store_mod"   // leveldb claim store
	WebMonitoring     = "web_mod"     // websocket event hub
	BuilderMonitoring = "builder_mod" // offline distribution builder
	AppMonitoring     = "app_mod"     // live reward app
)

var root atomic.Value

func init() {
	root.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelCrit})))
}

func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "CRIT", "CRITICAL":
		return LevelCrit, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

func InitLogger(logLevel string) {
	logLvl, err := ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	root.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLvl})))
}

// Root returns the root logger
func Root() *slog.Logger {
	return root.Load().(*slog.Logger)
}

var moduleEnabled = map[string]bool{
	DropMonitoring:    true,
	StoreMonitoring:   false,
	WebMonitoring:     false,
	BuilderMonitoring: true,
	AppMonitoring:     false,
}

// EnableModules enables trace/debug logging for a comma-separated list
// of module tags ("all" enables every known module).
func EnableModules(modules string) {
	if strings.EqualFold(modules, "all") {
		for m := range moduleEnabled {
			moduleEnabled[m] = true
		}
		return
	}
	for _, m := range strings.Split(modules, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			moduleEnabled[m] = true
		}
	}
}

// DisableModule disables trace/debug logging for the specified module.
func DisableModule(module string) {
	moduleEnabled[module] = false
}

func isModuleEnabled(module string) bool {
	enabled, ok := moduleEnabled[module]
	return ok && enabled
}

// Trace logs a message at the trace level for a specific module.
func Trace(module string, msg string, ctx ...interface{}) {
	if !isModuleEnabled(module) {
		return
	}
	newCtx := append([]interface{}{"module", module}, ctx...)
	Root().Log(context.Background(), LevelTrace, msg, newCtx...)
}

// Debug logs a message at the debug level for a specific module.
func Debug(module string, msg string, ctx ...interface{}) {
	if !isModuleEnabled(module) {
		return
	}
	newCtx := append([]interface{}{"module", module}, ctx...)
	Root().Log(context.Background(), slog.LevelDebug, msg, newCtx...)
}

// Info, Warn, Error and Crit do not filter on module.
func Info(module string, msg string, ctx ...interface{}) {
	newCtx := append([]interface{}{"module", module}, ctx...)
	Root().Log(context.Background(), slog.LevelInfo, msg, newCtx...)
}

func Warn(module string, msg string, ctx ...interface{}) {
	newCtx := append([]interface{}{"module", module}, ctx...)
	Root().Log(context.Background(), slog.LevelWarn, msg, newCtx...)
}

func Error(module string, msg string, ctx ...interface{}) {
	newCtx := append([]interface{}{"module", module}, ctx...)
	Root().Log(context.Background(), slog.LevelError, msg, newCtx...)
}

func Crit(module string, msg string, ctx ...interface{}) {
	newCtx := append([]interface{}{"module", module}, ctx...)
	Root().Log(context.Background(), LevelCrit, msg, newCtx...)
	os.Exit(1)
}
