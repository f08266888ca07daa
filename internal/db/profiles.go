package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Profile is a stored browser profile. Proxy is populated by the joined
// lookups when the profile references an existing proxy.
type Profile struct {
	ID              int64
	ProfileID       string
	Name            string
	Notes           string
	ProxyID         *int64
	Tags            string
	OS              string
	UserAgent       string
	OpenTabs        string
	TimezoneMode    string
	TimezoneValue   string
	GeolocationMode string
	GeolocationLat  *float64
	GeolocationLon  *float64
	LanguageMode    string
	Languages       string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Proxy *Proxy
}

// ProfileParams holds the writable profile columns. ProfileID is only used
// on insert; the identifier never changes afterwards.
type ProfileParams struct {
	ProfileID       string
	Name            string
	Notes           string
	ProxyID         *int64
	Tags            string
	OS              string
	UserAgent       string
	OpenTabs        string
	TimezoneMode    string
	TimezoneValue   string
	GeolocationMode string
	GeolocationLat  *float64
	GeolocationLon  *float64
	LanguageMode    string
	Languages       string
}

const profileSelect = `
SELECT p.id, p.profile_id, p.name, p.notes, p.proxy_id, p.tags, p.os, p.user_agent, p.open_tabs,
       p.timezone_mode, p.timezone_value, p.geolocation_mode, p.geolocation_lat, p.geolocation_lon,
       p.language_mode, p.languages, p.created_at, p.updated_at,
       x.id, x.name, x.type, x.host, x.port, x.username, x.password, x.created_at
FROM profiles p
LEFT JOIN proxies x ON x.id = p.proxy_id`

func scanProfile(row rowScanner) (Profile, error) {
	var (
		p                Profile
		proxyID          sql.NullInt64
		tzValue, langs   sql.NullString
		lat, lon         sql.NullFloat64
		created, updated int64

		xID, xPort, xCreated sql.NullInt64
		xName, xType, xHost  sql.NullString
		xUser, xPass         sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.ProfileID, &p.Name, &p.Notes, &proxyID, &p.Tags, &p.OS, &p.UserAgent, &p.OpenTabs,
		&p.TimezoneMode, &tzValue, &p.GeolocationMode, &lat, &lon,
		&p.LanguageMode, &langs, &created, &updated,
		&xID, &xName, &xType, &xHost, &xPort, &xUser, &xPass, &xCreated,
	)
	if err != nil {
		return Profile{}, err
	}
	p.ProxyID = int64Ptr(proxyID)
	p.TimezoneValue = tzValue.String
	p.GeolocationLat = float64Ptr(lat)
	p.GeolocationLon = float64Ptr(lon)
	p.Languages = langs.String
	p.CreatedAt = unix(created)
	p.UpdatedAt = unix(updated)

	if xID.Valid {
		p.Proxy = &Proxy{
			ID:        xID.Int64,
			Name:      xName.String,
			Type:      xType.String,
			Host:      xHost.String,
			Port:      int(xPort.Int64),
			Username:  xUser.String,
			Password:  xPass.String,
			CreatedAt: unix(xCreated.Int64),
		}
	}
	return p, nil
}

// CreateProfile inserts a profile and returns its row id.
func (s *Store) CreateProfile(ctx context.Context, arg ProfileParams) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (profile_id, name, notes, proxy_id, tags, os, user_agent, open_tabs,
		                      timezone_mode, timezone_value, geolocation_mode, geolocation_lat, geolocation_lon,
		                      language_mode, languages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ProfileID, arg.Name, arg.Notes, nullInt64(arg.ProxyID), arg.Tags, arg.OS, arg.UserAgent, openTabs(arg.OpenTabs),
		arg.TimezoneMode, nullString(arg.TimezoneValue), arg.GeolocationMode, nullFloat64(arg.GeolocationLat), nullFloat64(arg.GeolocationLon),
		arg.LanguageMode, nullString(arg.Languages))
	if err != nil {
		return 0, fmt.Errorf("create profile: %w", err)
	}
	return res.LastInsertId()
}

// GetProfile returns the profile with the given row id, joined with its proxy.
func (s *Store) GetProfile(ctx context.Context, id int64) (Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, profileSelect+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %d: %w", id, err)
	}
	return p, nil
}

// GetProfileByProfileID looks a profile up by its stable external identifier.
func (s *Store) GetProfileByProfileID(ctx context.Context, profileID string) (Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, profileSelect+` WHERE p.profile_id = ?`, profileID))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %s: %w", profileID, err)
	}
	return p, nil
}

// ListProfiles returns all profiles, newest first.
func (s *Store) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, profileSelect+` ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProfile replaces every writable column except the identifier.
func (s *Store) UpdateProfile(ctx context.Context, id int64, arg ProfileParams) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET
			name = ?, notes = ?, proxy_id = ?, tags = ?, os = ?, user_agent = ?, open_tabs = ?,
			timezone_mode = ?, timezone_value = ?, geolocation_mode = ?, geolocation_lat = ?, geolocation_lon = ?,
			language_mode = ?, languages = ?, updated_at = unixepoch()
		WHERE id = ?`,
		arg.Name, arg.Notes, nullInt64(arg.ProxyID), arg.Tags, arg.OS, arg.UserAgent, openTabs(arg.OpenTabs),
		arg.TimezoneMode, nullString(arg.TimezoneValue), arg.GeolocationMode, nullFloat64(arg.GeolocationLat), nullFloat64(arg.GeolocationLon),
		arg.LanguageMode, nullString(arg.Languages), id)
	if err != nil {
		return fmt.Errorf("update profile %d: %w", id, err)
	}
	return requireAffected(res)
}

// DeleteProfile removes the profile row.
func (s *Store) DeleteProfile(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile %d: %w", id, err)
	}
	return requireAffected(res)
}

// NextProfileNumber returns the number used for default ID_<n> names.
func (s *Store) NextProfileNumber(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT IFNULL(MAX(id), 0) + 1 FROM profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next profile number: %w", err)
	}
	return n, nil
}

func openTabs(s string) string {
	if s == "" {
		return "[]"
	}
	return s
}
