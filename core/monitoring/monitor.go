package monitoring

import "time"

// Monitor reports faults to an external error tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

// Tags builds the tag set pipeline captures are filed under, so one train's
// faults can be grouped in the tracker.
func Tags(train, stage string) map[string]string {
	return map[string]string{"train": train, "stage": stage}
}
