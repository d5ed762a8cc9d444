// Package logger is the process-wide logging facade of the genea
// services. Sinks are registered once at startup; all other packages log
// through the package-level functions, which are no-ops until Init runs
// so library code never has to guard its log calls.
package logger

// Sink receives log records. Console output is the only sink in use, the
// facade exists so the services can fan out to more than one.
type Sink interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var sinks []Sink

// Init registers the sinks every subsequent log call fans out to. Both
// binaries call it first thing in main.
func Init(s ...Sink) {
	sinks = s
}

func Debug(message string, keyvals ...any) {
	for _, s := range sinks {
		s.Debug(message, keyvals...)
	}
}

func Info(message string, keyvals ...any) {
	for _, s := range sinks {
		s.Info(message, keyvals...)
	}
}

func Warn(message string, keyvals ...any) {
	for _, s := range sinks {
		s.Warn(message, keyvals...)
	}
}

func Error(message string, keyvals ...any) {
	for _, s := range sinks {
		s.Error(message, keyvals...)
	}
}

// Fatal writes the record to every sink; the console sink ends the
// process, so it must come last in the Init order.
func Fatal(message string, keyvals ...any) {
	for _, s := range sinks {
		s.Fatal(message, keyvals...)
	}
}
