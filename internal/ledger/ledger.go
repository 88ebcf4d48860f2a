// Package ledger holds the session's submission records in insertion order.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"time-release-helper/internal/models"
)

// Scope selects which records an export contains
type Scope int

const (
	All Scope = iota
	Last
)

// ParseScope maps "all" and "last" to a Scope
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "last":
		return Last, nil
	default:
		return All, fmt.Errorf("unknown export scope %q", s)
	}
}

// Ledger is a concurrency-safe, in-memory record store for one session
type Ledger struct {
	mu       sync.RWMutex
	id       string
	order    []string
	records  map[string]models.SubmissionRecord
	lastKey  string
	onChange []func(models.SubmissionRecord)
	logger   *zerolog.Logger
}

// New creates an empty ledger labelled with a fresh session id
func New(logger *zerolog.Logger) *Ledger {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Ledger{
		id:      uuid.NewString(),
		records: make(map[string]models.SubmissionRecord),
		logger:  logger,
	}
}

// SessionID returns the id labelling this ledger
func (l *Ledger) SessionID() string {
	return l.id
}

// OnChange registers a callback invoked after each insert or update
func (l *Ledger) OnChange(fn func(models.SubmissionRecord)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// InsertProvisional adds a record under its call fingerprint. The key must be new.
func (l *Ledger) InsertProvisional(rec models.SubmissionRecord) error {
	if rec.Key == "" {
		rec.Key = rec.CallFingerprint
	}
	if rec.Key == "" {
		return fmt.Errorf("record has no key")
	}

	l.mu.Lock()
	if _, exists := l.records[rec.Key]; exists {
		l.mu.Unlock()
		return fmt.Errorf("record %s already exists", rec.Key)
	}
	if rec.FinalizedBlockRef == "" {
		rec.FinalizedBlockRef = models.UnknownBlockRef
	}
	rec.UpdatedAt = time.Now().UTC()
	l.insertLocked(rec)
	hooks := l.onChange
	l.mu.Unlock()

	l.logger.Debug().Str("key", rec.Key).Str("label", rec.Label).Msg("Inserted provisional record")
	notify(hooks, rec)
	return nil
}

// Put inserts or replaces the record stored under rec.Key
func (l *Ledger) Put(rec models.SubmissionRecord) {
	l.mu.Lock()
	rec.UpdatedAt = time.Now().UTC()
	if _, exists := l.records[rec.Key]; exists {
		l.records[rec.Key] = rec
		l.lastKey = rec.Key
	} else {
		l.insertLocked(rec)
	}
	hooks := l.onChange
	l.mu.Unlock()

	notify(hooks, rec)
}

// PromoteKey moves the record under oldKey to newKey, keeping its position.
// If oldKey is gone (the ledger was cleared) nothing is moved and false is returned.
func (l *Ledger) PromoteKey(oldKey, newKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[oldKey]
	if !ok {
		return false
	}
	if oldKey == newKey {
		l.lastKey = newKey
		return true
	}

	delete(l.records, oldKey)
	rec.Key = newKey
	l.records[newKey] = rec
	for i, k := range l.order {
		if k == oldKey {
			l.order[i] = newKey
			break
		}
	}
	l.lastKey = newKey

	l.logger.Debug().Str("from", oldKey).Str("to", newKey).Msg("Promoted record key")
	return true
}

// Get returns the record stored under key
func (l *Ledger) Get(key string) (models.SubmissionRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[key]
	return rec, ok
}

// Last returns the most recently touched record
func (l *Ledger) Last() (models.SubmissionRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.lastKey == "" {
		return models.SubmissionRecord{}, false
	}
	rec, ok := l.records[l.lastKey]
	return rec, ok
}

// Len returns the number of records
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Records returns a snapshot in insertion order
func (l *Ledger) Records() []models.SubmissionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.SubmissionRecord, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, l.records[k])
	}
	return out
}

// Clear drops every record. Live submissions that update afterwards are re-added.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = nil
	l.records = make(map[string]models.SubmissionRecord)
	l.lastKey = ""
	l.logger.Info().Str("session_id", l.id).Msg("Ledger cleared")
}

// ExportRows renders the ledger as rows. All yields a header plus one row per
// record, or no rows when empty. Last yields only the last touched record.
func (l *Ledger) ExportRows(scope Scope) [][]string {
	if scope == Last {
		rec, ok := l.Last()
		if !ok {
			return nil
		}
		return [][]string{rec.Values()}
	}

	records := l.Records()
	if len(records) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, models.SubmissionRecord{}.FieldNames())
	for _, rec := range records {
		rows = append(rows, rec.Values())
	}
	return rows
}

// WriteTSV writes the export rows tab separated
func (l *Ledger) WriteTSV(w io.Writer, scope Scope) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.WriteAll(l.ExportRows(scope)); err != nil {
		return fmt.Errorf("failed to write ledger export: %w", err)
	}
	return nil
}

func (l *Ledger) insertLocked(rec models.SubmissionRecord) {
	l.order = append(l.order, rec.Key)
	l.records[rec.Key] = rec
	l.lastKey = rec.Key
}

func notify(hooks []func(models.SubmissionRecord), rec models.SubmissionRecord) {
	for _, fn := range hooks {
		fn(rec)
	}
}
