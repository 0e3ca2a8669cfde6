package fetcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type stubFetcher struct {
	delays   map[string]time.Duration
	failures map[string]error
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *stubFetcher) FetchRecords(ctx context.Context, fileID string) ([]RawRecord, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	time.Sleep(s.delays[fileID])
	if err := s.failures[fileID]; err != nil {
		return nil, err
	}
	return []RawRecord{{Time: fileID, Fields: map[string]decimal.Decimal{"prf": decimal.NewFromInt(1)}}}, nil
}

func TestFetchAllKeepsRequestOrder(t *testing.T) {
	stub := &stubFetcher{delays: map[string]time.Duration{
		"slow": 30 * time.Millisecond,
		"fast": 0,
		"mid":  10 * time.Millisecond,
	}}
	files := []FileEntry{{ID: "slow"}, {ID: "fast"}, {ID: "mid"}}

	results := FetchAll(context.Background(), stub, files, 0)
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	for i, r := range results {
		if r.File.ID != files[i].ID || !r.OK() || r.Records[0].Time != files[i].ID {
			t.Fatalf("result %d = %+v", i, r)
		}
	}
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	stub := &stubFetcher{failures: map[string]error{"b": errors.New("boom")}}
	files := []FileEntry{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	results := FetchAll(context.Background(), stub, files, 0)
	if !results[0].OK() || !results[2].OK() {
		t.Fatalf("siblings of a failed fetch must succeed: %+v", results)
	}
	if results[1].OK() || !errors.Is(results[1].Err, ErrUpstream) || len(results[1].Records) != 0 {
		t.Fatalf("failed fetch = %+v", results[1])
	}
}

func TestFetchAllRespectsLimit(t *testing.T) {
	stub := &stubFetcher{delays: map[string]time.Duration{}}
	var files []FileEntry
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		stub.delays[id] = 10 * time.Millisecond
		files = append(files, FileEntry{ID: id})
	}

	FetchAll(context.Background(), stub, files, 2)
	if peak := stub.peak.Load(); peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestRawRecordTimestamp(t *testing.T) {
	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"09:15:30":             time.Date(2024, 5, 6, 9, 15, 30, 0, time.UTC),
		"0915":                 time.Date(2024, 5, 6, 0, 9, 15, 0, time.UTC),
		"2024-05-01T10:00:00Z": time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		"2024-05-01 10:00:01":  time.Date(2024, 5, 1, 10, 0, 1, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := RawRecord{Time: in}.Timestamp(day)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%q = %s, want %s", in, got, want)
		}
	}
	if _, err := (RawRecord{Time: "yesterday"}).Timestamp(day); err == nil {
		t.Fatal("unparseable time should fail")
	}
}
