package store

import (
	"context"
	"fmt"
	"strings"
)

// Admin roles. A pole admin only manages the poles listed in AllowedPoles.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RolePoleAdmin  = "POLE_ADMIN"
)

// Admin is one back-office profile.
type Admin struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	AllowedPoles []string `json:"allowedPoles"`
	Activated    bool     `json:"isActivated"`
	LastLogin    string   `json:"lastLogin,omitempty"`
}

// ListAdmins returns all profiles ordered by name.
func (s *Store) ListAdmins(ctx context.Context) ([]Admin, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, role, allowed_poles, is_activated, last_login FROM admins ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var out []Admin
	for rows.Next() {
		var a Admin
		var poles string
		var activated int
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &poles, &activated, &a.LastLogin); err != nil {
			return nil, err
		}
		a.Activated = activated != 0
		a.AllowedPoles = splitPoles(poles)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAdmin creates or replaces a profile. A missing id gets a fresh one.
func (s *Store) UpsertAdmin(ctx context.Context, a Admin) (Admin, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.Role == "" {
		a.Role = RolePoleAdmin
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (id, name, email, role, allowed_poles, is_activated, last_login)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, email = excluded.email, role = excluded.role,
			allowed_poles = excluded.allowed_poles, is_activated = excluded.is_activated,
			last_login = excluded.last_login`,
		a.ID, a.Name, a.Email, a.Role, strings.Join(a.AllowedPoles, ","), boolInt(a.Activated), a.LastLogin)
	if err != nil {
		return Admin{}, fmt.Errorf("upsert admin: %w", err)
	}
	return a, nil
}

// DeleteAdmin removes one profile.
func (s *Store) DeleteAdmin(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func splitPoles(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
