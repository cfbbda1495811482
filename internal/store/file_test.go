package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwrk-planet/voice-service/internal/domain"
)

func tempStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tempvoice.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s, path
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, path := tempStore(t)

	left := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	recs := []domain.RoomRecord{
		{RoomID: "r1", ZoneID: "hub-duo", OwnerID: "u1", CreatedAt: time.Now().UTC()},
		{RoomID: "r2", ZoneID: "hub-duo", CreatedAt: time.Now().UTC(), OwnerLeftAt: &left},
		{RoomID: "p1", ZoneID: "hub-personal", OwnerID: "u2", IsPersonal: true, CreatedAt: time.Now().UTC()},
	}
	for i := range recs {
		if err := s.Put(ctx, &recs[i]); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	// перечитываем с диска: рестарт процесса
	s2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	got, err := s2.Get(ctx, "r2")
	if err != nil {
		t.Fatalf("Get r2: %v", err)
	}
	if got.Owned() {
		t.Fatalf("r2 must be unclaimed, owner=%q", got.OwnerID)
	}
	if got.OwnerLeftAt == nil || !got.OwnerLeftAt.Equal(left) {
		t.Fatalf("r2 owner_left_at mismatch: %v", got.OwnerLeftAt)
	}

	p, err := s2.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get p1: %v", err)
	}
	if !p.IsPersonal || p.OwnerID != "u2" {
		t.Fatalf("p1 mismatch: %+v", p)
	}

	byZone, err := s2.ListByZone(ctx, "hub-duo")
	if err != nil {
		t.Fatalf("ListByZone: %v", err)
	}
	if len(byZone) != 2 {
		t.Fatalf("hub-duo rooms: want 2, got %d", len(byZone))
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	s, _ := tempStore(t)
	if _, err := s.Get(context.Background(), "nope"); err != domain.ErrNotTracked {
		t.Fatalf("want ErrNotTracked, got %v", err)
	}
}

func TestFileStore_RemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := tempStore(t)

	rec := domain.RoomRecord{RoomID: "r1", ZoneID: "z", CreatedAt: time.Now()}
	if err := s.Put(ctx, &rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Remove(ctx, "r1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, "r1"); err != nil {
		t.Fatalf("second Remove must be a no-op, got %v", err)
	}
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempvoice.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("corrupt file must not be fatal: %v", err)
	}
	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("want empty store, got %d records", len(all))
	}
}

func TestFileStore_MalformedEntrySkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempvoice.json")
	raw := `{"rooms":{
		"good":{"zoneId":"z","ownerId":"u1","isPersonal":false,"createdAt":"2025-06-01T12:00:00Z"},
		"bad":{"zoneId":"z","createdAt":"not-a-time"},
		"worse":{"createdAt":"2025-06-01T12:00:00Z"}
	}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 || all[0].RoomID != "good" {
		t.Fatalf("want only the good entry, got %+v", all)
	}
}
