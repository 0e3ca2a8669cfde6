package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"sessionchart/internal/config"
	"sessionchart/internal/fetcher"
)

func TestStoreNotConfigured(t *testing.T) {
	store := NewStore(nil, 0)
	ctx := context.Background()

	if _, err := store.ListFiles(ctx, fetcher.FileQuery{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("ListFiles err = %v", err)
	}
	if _, err := store.FetchRecords(ctx, "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("FetchRecords err = %v", err)
	}
	if _, err := store.FetchLive(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("FetchLive err = %v", err)
	}
	store.Close()
}

func TestNewStoreDefaultLimit(t *testing.T) {
	if got := NewStore(nil, 0).liveLimit; got != DefaultLiveLimit {
		t.Fatalf("liveLimit = %d", got)
	}
	if got := NewStore(nil, 50).liveLimit; got != 50 {
		t.Fatalf("liveLimit = %d", got)
	}
}

func TestSessionRowEntry(t *testing.T) {
	name := "K 2024-03-04"
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	entry := SessionRow{ID: "7", Name: &name, Date: &day}.Entry()
	if entry.ID != "7" || entry.Date != "2024-03-04" || entry.Name != name {
		t.Fatalf("entry = %+v", entry)
	}
	if got := (SessionRow{ID: "8"}).Entry(); got.Label() != "8" {
		t.Fatalf("label = %q", got.Label())
	}
}

func TestOptionalFilters(t *testing.T) {
	if d, err := optionalDate(""); err != nil || d != nil {
		t.Fatalf("empty date = %v, %v", d, err)
	}
	if _, err := optionalDate("04/03/2024"); err == nil {
		t.Fatal("expected error for malformed date")
	}
	if optionalText("") != nil {
		t.Fatal("empty strategy should be nil")
	}
}

func TestNewPoolRequiresDSN(t *testing.T) {
	if _, err := NewPool(context.Background(), config.DatabaseConfig{MaxOpenConns: 4}); err == nil {
		t.Fatal("expected error without dsn")
	}
}
