package storage

import (
	"time"

	"sessionchart/internal/fetcher"
)

// SessionRow is one row of the sessions table.
type SessionRow struct {
	ID       string
	Name     *string
	Date     *time.Time
	Strategy *string
}

// Entry converts the row to the listing shape shared with the HTTP backend.
func (r SessionRow) Entry() fetcher.FileEntry {
	entry := fetcher.FileEntry{ID: r.ID}
	if r.Name != nil {
		entry.Name = *r.Name
	}
	if r.Date != nil {
		entry.Date = r.Date.Format(time.DateOnly)
	}
	return entry
}
