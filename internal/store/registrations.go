package store

import (
	"database/sql"
	"errors"
	"time"
)

// Registration is one user's delivery channel. One row per identity; a
// re-register overwrites the handle and role in place, created_at survives.
type Registration struct {
	UserEmail     string
	ChannelHandle string
	Role          string
	CreatedAt     int64
	UpdatedAt     int64
}

// UpsertRegistration writes the registration keyed by identity with merge
// semantics: an empty incoming handle or role keeps whatever is stored, so
// callers may refresh a single field without clobbering the rest.
func (s *Store) UpsertRegistration(userEmail string, channelHandle string, role string) error {
	if userEmail == "" {
		return errors.New("store: user email required")
	}
	now := time.Now().UnixMilli()
	_, err := s.DB.Exec(
		`INSERT INTO channel_registrations (user_email, channel_handle, role, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(user_email) DO UPDATE SET
             channel_handle = CASE WHEN excluded.channel_handle = '' THEN channel_handle ELSE excluded.channel_handle END,
             role = CASE WHEN excluded.role = '' THEN role ELSE excluded.role END,
             updated_at = excluded.updated_at`,
		userEmail,
		channelHandle,
		role,
		now,
		now,
	)
	return err
}

// GetRegistration returns nil when the identity has no channel.
func (s *Store) GetRegistration(userEmail string) (*Registration, error) {
	row := s.DB.QueryRow(
		`SELECT user_email, channel_handle, role, created_at, updated_at
         FROM channel_registrations WHERE user_email = ?`,
		userEmail,
	)

	var reg Registration
	err := row.Scan(&reg.UserEmail, &reg.ChannelHandle, &reg.Role, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *Store) DeleteRegistration(userEmail string) error {
	_, err := s.DB.Exec(`DELETE FROM channel_registrations WHERE user_email = ?`, userEmail)
	return err
}

// PruneStaleRegistrations removes rows not refreshed within maxAge. A push
// service invalidates tokens on its own schedule; this just keeps the table
// from accumulating channels nobody can deliver to anymore.
func (s *Store) PruneStaleRegistrations(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	res, err := s.DB.Exec(`DELETE FROM channel_registrations WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) CountRegistrations() (int64, error) {
	var n int64
	err := s.DB.QueryRow(`SELECT COUNT(*) FROM channel_registrations`).Scan(&n)
	return n, err
}
