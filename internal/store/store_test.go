package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/cmcnador-art/cmc-timetable/internal/analysis"
	"github.com/cmcnador-art/cmc-timetable/internal/layout"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTimetable_CRUDRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTimetable(ctx, Timetable{
		Pole:      "Digital",
		Specialty: "Développement",
		Level:     "1A",
		Group:     "DEV101",
		Active:    true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}
	if created.PDFURL != "#" {
		t.Errorf("expected placeholder pdf url, got %q", created.PDFURL)
	}

	got, err := s.GetTimetable(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got, created) {
		t.Errorf("expected %+v, got %+v", created, got)
	}

	got.Group = "DEV102"
	updated, err := s.UpdateTimetable(ctx, got)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Group != "DEV102" {
		t.Errorf("expected updated group, got %q", updated.Group)
	}

	if err := s.DeleteTimetable(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTimetable(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTimetable_SetPDFBumpsMarker(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTimetable(ctx, Timetable{Pole: "Digital", Group: "DEV101"})
	if err != nil {
		t.Fatal(err)
	}

	// RFC3339 has second precision; make sure the marker can move.
	time.Sleep(1100 * time.Millisecond)

	after, err := s.SetTimetablePDF(ctx, created.ID, "/files/dev101.pdf")
	if err != nil {
		t.Fatalf("set pdf: %v", err)
	}
	if after.PDFURL != "/files/dev101.pdf" {
		t.Errorf("expected pdf url persisted, got %q", after.PDFURL)
	}
	if after.LastUpdated == created.LastUpdated {
		t.Error("expected last-modified marker to change on upload")
	}
}

func TestTimetable_DeleteByPole(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, g := range []string{"DEV101", "DEV102"} {
		if _, err := s.CreateTimetable(ctx, Timetable{Pole: "Digital", Group: g}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.CreateTimetable(ctx, Timetable{Pole: "Industrie", Group: "IND201"}); err != nil {
		t.Fatal(err)
	}

	n, err := s.DeleteTimetablesByPole(ctx, "Digital")
	if err != nil {
		t.Fatalf("delete by pole: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}

	rest, err := s.ListTimetables(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 || rest[0].Pole != "Industrie" {
		t.Errorf("expected only Industrie left, got %+v", rest)
	}
}

func TestAdmins_UpsertListDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.UpsertAdmin(ctx, Admin{
		Name:         "Sara",
		Email:        "sara@example.com",
		Role:         RoleSuperAdmin,
		AllowedPoles: []string{"Digital", "Industrie"},
		Activated:    true,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected assigned id")
	}

	a.Email = "sara@cmc.example.com"
	if _, err := s.UpsertAdmin(ctx, a); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	list, err := s.ListAdmins(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 admin, got %d", len(list))
	}
	if list[0].Email != "sara@cmc.example.com" {
		t.Errorf("expected updated email, got %q", list[0].Email)
	}
	if !reflect.DeepEqual(list[0].AllowedPoles, []string{"Digital", "Industrie"}) {
		t.Errorf("expected poles round-trip, got %v", list[0].AllowedPoles)
	}

	if err := s.DeleteAdmin(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteAdmin(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestScheduleCache_RoundTripAndReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	cache := NewScheduleCache(s.DB(), log)

	key := analysis.CacheKey("g1", "v1")
	slots := []layout.Slot{{Day: "Lundi", Time: "08:30 - 11:00", Teacher: "Ahmed"}}
	err = cache.PutAll(map[string]analysis.Entry{
		key: {Slots: slots, CachedAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	entry, ok, err := cache.Get(key)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(entry.Slots, slots) {
		t.Errorf("expected %+v, got %+v", slots, entry.Slots)
	}

	// Entries survive a process restart.
	s.Close()
	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	cache2 := NewScheduleCache(s2.DB(), log)

	entry, ok, err = cache2.Get(key)
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(entry.Slots, slots) {
		t.Errorf("expected entry to survive reopen, got %+v", entry.Slots)
	}
	if !entry.CachedAt.Equal(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("expected timestamp round-trip, got %v", entry.CachedAt)
	}
}

func TestScheduleCache_MissAndCorruptRow(t *testing.T) {
	s := openTestStore(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := NewScheduleCache(s.DB(), log)

	if _, ok, err := cache.Get("absent_v1"); ok || err != nil {
		t.Errorf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	// A corrupt row reads as a miss, not an error.
	_, err := s.DB().Exec(
		`INSERT INTO schedule_cache (cache_key, slots, cached_at) VALUES (?, ?, ?)`,
		"bad_v1", "{not json", "2026-01-05T09:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := cache.Get("bad_v1"); ok || err != nil {
		t.Errorf("expected corrupt row treated as miss, got ok=%v err=%v", ok, err)
	}
}

func TestNewID_UniqueAndSorted(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		id := newID()
		if len(id) != 26 {
			t.Fatalf("expected 26-char id, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
		if prev != "" && id < prev {
			t.Fatalf("ids not monotonic: %q then %q", prev, id)
		}
		prev = id
	}
}
