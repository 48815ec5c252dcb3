package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Timetable is one published timetable record: the group it covers, where its
// PDF lives, and when the record last changed. LastUpdated doubles as the
// last-modified marker for the extraction cache, so every write bumps it.
type Timetable struct {
	ID          string `json:"id"`
	Pole        string `json:"pole"`
	PoleColor   string `json:"poleColor,omitempty"`
	Specialty   string `json:"specialty"`
	Level       string `json:"level"`
	Group       string `json:"group"`
	PDFURL      string `json:"pdfUrl"`
	Active      bool   `json:"active"`
	LastUpdated string `json:"lastUpdated"`
}

// ErrNotFound is returned when a record or profile does not exist.
var ErrNotFound = errors.New("not found")

const timetableCols = `id, pole, pole_color, specialty, level, group_name, pdf_url, is_active, updated_at`

// ListTimetables returns all records, newest first.
func (s *Store) ListTimetables(ctx context.Context) ([]Timetable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+timetableCols+` FROM timetables ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	defer rows.Close()

	var out []Timetable
	for rows.Next() {
		t, err := scanTimetable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTimetable returns one record by id.
func (s *Store) GetTimetable(ctx context.Context, id string) (Timetable, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+timetableCols+` FROM timetables WHERE id = ?`, id)
	t, err := scanTimetable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Timetable{}, ErrNotFound
	}
	return t, err
}

// CreateTimetable inserts a record, assigning its id and timestamps.
func (s *Store) CreateTimetable(ctx context.Context, t Timetable) (Timetable, error) {
	t.ID = newID()
	now := time.Now().UTC().Format(time.RFC3339)
	t.LastUpdated = now
	if t.PDFURL == "" {
		t.PDFURL = "#"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO timetables (id, pole, pole_color, specialty, level, group_name, pdf_url, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Pole, t.PoleColor, t.Specialty, t.Level, t.Group, t.PDFURL, boolInt(t.Active), now, now)
	if err != nil {
		return Timetable{}, fmt.Errorf("insert timetable: %w", err)
	}
	return t, nil
}

// UpdateTimetable rewrites a record's fields and bumps its marker.
func (s *Store) UpdateTimetable(ctx context.Context, t Timetable) (Timetable, error) {
	t.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE timetables SET pole = ?, pole_color = ?, specialty = ?, level = ?,
		 group_name = ?, pdf_url = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		t.Pole, t.PoleColor, t.Specialty, t.Level, t.Group, t.PDFURL, boolInt(t.Active), t.LastUpdated, t.ID)
	if err != nil {
		return Timetable{}, fmt.Errorf("update timetable: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Timetable{}, ErrNotFound
	}
	return t, nil
}

// SetTimetablePDF points a record at a freshly uploaded document. The marker
// bump is what invalidates the record's extraction cache entry.
func (s *Store) SetTimetablePDF(ctx context.Context, id, pdfURL string) (Timetable, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE timetables SET pdf_url = ?, updated_at = ? WHERE id = ?`, pdfURL, now, id)
	if err != nil {
		return Timetable{}, fmt.Errorf("set timetable pdf: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Timetable{}, ErrNotFound
	}
	return s.GetTimetable(ctx, id)
}

// DeleteTimetable removes one record.
func (s *Store) DeleteTimetable(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM timetables WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTimetablesByPole removes every record of a pole and returns how many
// went away.
func (s *Store) DeleteTimetablesByPole(ctx context.Context, pole string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM timetables WHERE pole = ?`, pole)
	if err != nil {
		return 0, fmt.Errorf("delete timetables by pole: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimetable(row rowScanner) (Timetable, error) {
	var t Timetable
	var active int
	err := row.Scan(&t.ID, &t.Pole, &t.PoleColor, &t.Specialty, &t.Level,
		&t.Group, &t.PDFURL, &active, &t.LastUpdated)
	if err != nil {
		return Timetable{}, err
	}
	t.Active = active != 0
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
