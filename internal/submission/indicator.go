package submission

import (
	"sync"
	"sync/atomic"

	"time-release-helper/internal/metrics"
)

var inFlight atomic.Int64

// InFlight returns the number of submissions without a terminal status in this process
func InFlight() int64 {
	return inFlight.Load()
}

// InProgress reports whether any submission is still being watched
func InProgress() bool {
	return InFlight() > 0
}

// indicatorLease is held by one handle and released exactly once
type indicatorLease struct {
	once sync.Once
}

func acquireIndicator() *indicatorLease {
	inFlight.Add(1)
	metrics.SubmissionStarted()
	return &indicatorLease{}
}

func (l *indicatorLease) release() {
	l.once.Do(func() {
		inFlight.Add(-1)
		metrics.SubmissionFinished()
	})
}
