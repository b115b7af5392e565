package logging

import (
	"os"
	"sort"

	"github.com/btcsuite/btclog"

	"iapkit/pkg/receipt"
	"iapkit/pkg/storekit"
)

// backendLog is the logging backend all subsystem loggers write to.
var backendLog = btclog.NewBackend(os.Stdout)

var (
	skitLog = backendLog.Logger("SKIT")
	rcptLog = backendLog.Logger("RCPT")
	srvrLog = backendLog.Logger("SRVR")
)

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"SKIT": skitLog,
	"RCPT": rcptLog,
	"SRVR": srvrLog,
}

// InitLogging hooks the library packages up to the shared backend and sets
// every subsystem to level. An unknown level falls back to info.
func InitLogging(level string) {
	storekit.UseLogger(skitLog)
	receipt.UseLogger(rcptLog)
	SetLogLevels(level)
}

// SetLogLevel sets the logging level for the provided subsystem. Invalid
// subsystems are ignored.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		level = btclog.LevelInfo
	}
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystem loggers.
func SetLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		SetLogLevel(subsystemID, logLevel)
	}
}

// SupportedSubsystems returns a sorted slice of the supported subsystems.
func SupportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// Logger returns the server logger.
func Logger() btclog.Logger {
	return srvrLog
}

// Infof logs info level messages
func Infof(format string, v ...interface{}) {
	srvrLog.Infof(format, v...)
}

// Warnf logs warning level messages
func Warnf(format string, v ...interface{}) {
	srvrLog.Warnf(format, v...)
}

// Errorf logs error level messages
func Errorf(format string, v ...interface{}) {
	srvrLog.Errorf(format, v...)
}

// Debugf logs debug level messages
func Debugf(format string, v ...interface{}) {
	srvrLog.Debugf(format, v...)
}
