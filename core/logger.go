package core

// Logger is any leveled logging sink the services can write to.
// Extra args are implementation-defined (error values, context maps, ...).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
