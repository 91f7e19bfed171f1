package monitoring

import "time"

// Monitor reports errors and panics to an external tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover must be deferred; it reports a panic and re-panics.
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything. Recover swallows nothing: a panic keeps
// unwinding because recover() is never called.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}
