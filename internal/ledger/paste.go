package ledger

import (
	"fmt"
	"strings"
	"time"
)

// PastedRow is one spreadsheet row describing a transfer
type PastedRow struct {
	Label     string
	Recipient string
	Amount    string
	Date      time.Time
}

// ParsePastedRow parses a tab separated "label, recipient, amount, date" row.
// The date is YYYY-MM-DD.
func ParsePastedRow(line string) (PastedRow, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 4 {
		return PastedRow{}, fmt.Errorf("expected 4 tab separated fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	date, err := time.Parse(time.DateOnly, fields[3])
	if err != nil {
		return PastedRow{}, fmt.Errorf("invalid date %q: %w", fields[3], err)
	}

	return PastedRow{
		Label:     fields[0],
		Recipient: fields[1],
		Amount:    fields[2],
		Date:      date,
	}, nil
}
