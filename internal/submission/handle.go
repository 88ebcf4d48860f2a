package submission

import (
	"context"
	"sync"

	"time-release-helper/internal/models"
)

const subscriberBuffer = 16

// Handle tracks one live submission
type Handle struct {
	mu     sync.Mutex
	rec    models.SubmissionRecord
	subs   map[int]chan models.SubmissionRecord
	nextID int
	err    error
	done   chan struct{}
	closed bool
}

func newHandle(rec models.SubmissionRecord) *Handle {
	return &Handle{
		rec:  rec,
		subs: make(map[int]chan models.SubmissionRecord),
		done: make(chan struct{}),
	}
}

// Record returns a snapshot of the current record
func (h *Handle) Record() models.SubmissionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rec
}

// Err returns the failure that ended the submission, if any
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Done is closed once the handle stops watching
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handle is done or ctx is cancelled
func (h *Handle) Wait(ctx context.Context) (models.SubmissionRecord, error) {
	select {
	case <-h.done:
		return h.Record(), h.Err()
	case <-ctx.Done():
		return h.Record(), ctx.Err()
	}
}

// Subscribe returns a channel of record snapshots starting with the current
// one, and a function that cancels the subscription. The channel is closed
// when the handle is done. Slow readers miss intermediate snapshots.
func (h *Handle) Subscribe() (<-chan models.SubmissionRecord, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan models.SubmissionRecord, subscriberBuffer)
	ch <- h.rec
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

func (h *Handle) update(rec models.SubmissionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rec = rec
	for _, ch := range h.subs {
		select {
		case ch <- rec:
		default:
		}
	}
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.err = err
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	close(h.done)
}
