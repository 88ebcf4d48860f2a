package events

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"time-release-helper/internal/interfaces"
	"time-release-helper/internal/models"
)

var _ interfaces.EventEmitter = (*LogEmitter)(nil)

// LogEmitter writes a human-readable line per event, keeps the session log
// and forwards to the wrapped emitter
type LogEmitter struct {
	WrappedEmitter interfaces.EventEmitter
	Out            io.Writer
	Logger         *zerolog.Logger

	mu    sync.Mutex
	lines []string
}

// NewLogEmitter creates a LogEmitter writing to out
func NewLogEmitter(out io.Writer, logger *zerolog.Logger, wrapped interfaces.EventEmitter) *LogEmitter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LogEmitter{WrappedEmitter: wrapped, Out: out, Logger: logger}
}

// EmitEvent logs the event and forwards it to the wrapped emitter
func (d *LogEmitter) EmitEvent(event models.SubmissionEvent) error {
	entry := FormatEntry(event)

	d.mu.Lock()
	d.lines = append(d.lines, entry)
	if d.Out != nil {
		_, _ = io.WriteString(d.Out, entry)
	}
	d.mu.Unlock()

	d.Logger.Info().
		Str("session_id", event.SessionID).
		Str("network", event.Network.String()).
		Str("label", event.Record.Label).
		Str("key", event.Record.Key).
		Str("status", event.Record.StatusText()).
		Msg(event.Message)

	if d.WrappedEmitter != nil {
		return d.WrappedEmitter.EmitEvent(event)
	}
	return nil
}

// SessionLog returns every entry emitted so far, oldest first
func (d *LogEmitter) SessionLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// FormatEntry renders "<time> - <label>: <message>" followed by indented details
func FormatEntry(event models.SubmissionEvent) string {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(ts.Local().Format(time.DateTime))
	b.WriteString(" - ")
	if event.Record.Label != "" {
		b.WriteString(event.Record.Label)
		b.WriteString(": ")
	}
	b.WriteString(event.Message)
	b.WriteByte('\n')
	for _, d := range event.Details {
		fmt.Fprintf(&b, "    %s\n", d)
	}
	return b.String()
}

// MultiEmitter fans an event out to several emitters
type MultiEmitter []interfaces.EventEmitter

func (m MultiEmitter) EmitEvent(event models.SubmissionEvent) error {
	var errs []string
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.EmitEvent(event); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to emit event: %s", strings.Join(errs, "; "))
	}
	return nil
}
