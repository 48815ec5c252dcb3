package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmcnador-art/cmc-timetable/internal/analysis"
)

// ScheduleCache is the durable extraction cache behind the analysis pipeline,
// keyed by document id plus last-modified marker. Superseded keys are left in
// place; re-extraction is avoided purely by the key never matching again.
type ScheduleCache struct {
	db  *sql.DB
	log *slog.Logger
}

func NewScheduleCache(db *sql.DB, log *slog.Logger) *ScheduleCache {
	return &ScheduleCache{db: db, log: log}
}

// Get looks up one document state.
func (c *ScheduleCache) Get(key string) (analysis.Entry, bool, error) {
	var slotsJSON, cachedAt string
	err := c.db.QueryRow(
		`SELECT slots, cached_at FROM schedule_cache WHERE cache_key = ?`, key).
		Scan(&slotsJSON, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.Entry{}, false, nil
	}
	if err != nil {
		return analysis.Entry{}, false, fmt.Errorf("read cache entry: %w", err)
	}

	var entry analysis.Entry
	if err := json.Unmarshal([]byte(slotsJSON), &entry.Slots); err != nil {
		// A corrupt row behaves like a miss so the document gets re-extracted.
		c.log.Warn("corrupt schedule cache entry", "key", key, "error", err)
		return analysis.Entry{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, cachedAt); err == nil {
		entry.CachedAt = t
	}
	return entry, true, nil
}

// PutAll upserts a batch of entries in one transaction.
func (c *ScheduleCache) PutAll(entries map[string]analysis.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache write: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO schedule_cache (cache_key, slots, cached_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET slots = excluded.slots, cached_at = excluded.cached_at`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare cache write: %w", err)
	}
	defer stmt.Close()

	for key, entry := range entries {
		slots, err := json.Marshal(entry.Slots)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode cache entry %s: %w", key, err)
		}
		if _, err := stmt.Exec(key, string(slots), entry.CachedAt.UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("write cache entry %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache write: %w", err)
	}
	return nil
}
