package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sessionchart/internal/fetcher"
	"sessionchart/internal/live"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	listSessionsSQL = `SELECT
        id,
        name,
        session_date,
        strategy
    FROM sessions
    WHERE ($1::date IS NULL OR session_date >= $1::date)
      AND ($2::date IS NULL OR session_date <= $2::date)
      AND ($3::text IS NULL OR strategy = $3::text)
    ORDER BY session_date DESC NULLS LAST, id;`

	listSessionRecordsSQL = `SELECT payload
    FROM session_records
    WHERE session_id = $1
    ORDER BY seq;`

	listLiveRecordsSQL = `SELECT payload FROM (
        SELECT seq, payload
        FROM live_records
        ORDER BY seq DESC
        LIMIT $1
    ) AS recent
    ORDER BY seq;`
)

// DefaultLiveLimit caps the live snapshot when no limit is configured.
const DefaultLiveLimit = 2000

// Store reads recorded sessions and the live feed from PostgreSQL.
type Store struct {
	pool      *pgxpool.Pool
	liveLimit int
}

// NewStore wires a pgx pool into a Store. liveLimit bounds the live snapshot.
func NewStore(pool *pgxpool.Pool, liveLimit int) *Store {
	if liveLimit <= 0 {
		liveLimit = DefaultLiveLimit
	}
	return &Store{pool: pool, liveLimit: liveLimit}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// ListFiles lists recorded sessions matching query, newest first.
func (s *Store) ListFiles(ctx context.Context, query fetcher.FileQuery) ([]fetcher.FileEntry, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	start, err := optionalDate(query.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := optionalDate(query.EndDate)
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSessionsSQL, start, end, optionalText(query.Strategy))
	if queryErr != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", fetcher.ErrTransport, queryErr)
	}
	defer rows.Close()

	entries := make([]fetcher.FileEntry, 0)
	for rows.Next() {
		var row SessionRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Date, &row.Strategy); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		entries = append(entries, row.Entry())
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", fetcher.ErrTransport, rows.Err())
	}
	return entries, nil
}

// FetchRecords returns the ordered records of one session.
func (s *Store) FetchRecords(ctx context.Context, fileID string) ([]fetcher.RawRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSessionRecordsSQL, fileID)
	if queryErr != nil {
		return nil, fmt.Errorf("%w: records of %s: %v", fetcher.ErrUpstream, fileID, queryErr)
	}
	return collectPayloads[fetcher.RawRecord](rows, "session record")
}

// FetchLive returns the newest live rows in ascending order.
func (s *Store) FetchLive(ctx context.Context) ([]live.Record, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listLiveRecordsSQL, s.liveLimit)
	if queryErr != nil {
		return nil, fmt.Errorf("%w: live records: %v", fetcher.ErrTransport, queryErr)
	}
	return collectPayloads[live.Record](rows, "live record")
}

func collectPayloads[T any](rows pgx.Rows, what string) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		var item T
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", what, err)
		}
		out = append(out, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func optionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return &day, nil
}

func optionalText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

var _ fetcher.Source = (*Store)(nil)
