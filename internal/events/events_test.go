package events

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"time-release-helper/internal/models"
)

// MockEventEmitter is a mock implementation of EventEmitter for testing
type MockEventEmitter struct {
	emittedEvents []models.SubmissionEvent
	emitError     error
	mu            sync.Mutex
}

func (m *MockEventEmitter) EmitEvent(event models.SubmissionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emitError != nil {
		return m.emitError
	}
	m.emittedEvents = append(m.emittedEvents, event)
	return nil
}

func (m *MockEventEmitter) GetEmittedEvents() []models.SubmissionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]models.SubmissionEvent, len(m.emittedEvents))
	copy(events, m.emittedEvents)
	return events
}

func testEvent() models.SubmissionEvent {
	return models.SubmissionEvent{
		SessionID: "s1",
		Network:   models.Frequency,
		Message:   "Sending time release",
		Details:   []string{"Recipient: 5FHne", "Amount: 1,000"},
		Record:    models.SubmissionRecord{Key: "0xaa", Label: "grant", Status: models.StatusSending},
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestLogEmitterWritesAndForwards(t *testing.T) {
	var out bytes.Buffer
	wrapped := &MockEventEmitter{}
	e := NewLogEmitter(&out, nil, wrapped)

	if err := e.EmitEvent(testEvent()); err != nil {
		t.Fatalf("EmitEvent() error = %v", err)
	}

	text := out.String()
	if !strings.Contains(text, " - grant: Sending time release\n") {
		t.Errorf("unexpected head line: %q", text)
	}
	if !strings.Contains(text, "    Amount: 1,000\n") {
		t.Errorf("missing detail line: %q", text)
	}

	if len(wrapped.GetEmittedEvents()) != 1 {
		t.Error("event not forwarded")
	}
	if log := e.SessionLog(); len(log) != 1 || log[0] != text {
		t.Errorf("SessionLog() = %v", log)
	}
}

func TestLogEmitterPropagatesWrappedError(t *testing.T) {
	wrapped := &MockEventEmitter{emitError: errors.New("broker down")}
	e := NewLogEmitter(nil, nil, wrapped)

	if err := e.EmitEvent(testEvent()); err == nil {
		t.Error("expected wrapped error")
	}
	if len(e.SessionLog()) != 1 {
		t.Error("entry should be kept even when forwarding fails")
	}
}

func TestFormatEntryWithoutLabel(t *testing.T) {
	ev := testEvent()
	ev.Record.Label = ""
	ev.Details = nil

	entry := FormatEntry(ev)
	if strings.Contains(entry, ": Sending") || !strings.HasSuffix(entry, " - Sending time release\n") {
		t.Errorf("FormatEntry() = %q", entry)
	}
}

func TestMultiEmitter(t *testing.T) {
	a := &MockEventEmitter{}
	b := &MockEventEmitter{emitError: errors.New("b failed")}
	c := &MockEventEmitter{}

	err := MultiEmitter{a, nil, b, c}.EmitEvent(testEvent())
	if err == nil || !strings.Contains(err.Error(), "b failed") {
		t.Errorf("EmitEvent() error = %v", err)
	}
	if len(a.GetEmittedEvents()) != 1 || len(c.GetEmittedEvents()) != 1 {
		t.Error("healthy emitters should still receive the event")
	}
}
