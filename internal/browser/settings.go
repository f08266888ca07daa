package browser

import (
	"encoding/json"
	"strings"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
)

// Stored profile modes.
const (
	TimezoneIP     = "ip"
	TimezoneSystem = "system"
	TimezoneCustom = "custom"

	GeolocationIP     = "ip"
	GeolocationManual = "manual"
	GeolocationBlock  = "block"

	LanguageIP     = "ip"
	LanguageCustom = "custom"
)

// PermissionGeolocation is the permission granted with manual coordinates.
const PermissionGeolocation = "geolocation"

// Geolocation is a fixed position reported to pages.
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LaunchSettings are the per-context overrides derived from a profile.
// Empty strings and nil values mean "leave the engine default".
type LaunchSettings struct {
	UserAgent   string       `json:"user_agent,omitempty"`
	Locale      string       `json:"locale,omitempty"`
	TimezoneID  string       `json:"timezone_id,omitempty"`
	Geolocation *Geolocation `json:"geolocation,omitempty"`
	// Permissions is nil to leave permissions untouched and non-nil but
	// empty to deny every permission.
	Permissions  []string          `json:"permissions"`
	ExtraHeaders map[string]string `json:"extra_headers,omitempty"`
}

// DenyAll reports whether every permission should be revoked.
func (s LaunchSettings) DenyAll() bool {
	return s.Permissions != nil && len(s.Permissions) == 0
}

// SettingsFor maps a stored profile to launch overrides. It never fails:
// unusable stored values fall back to "absent".
func SettingsFor(p db.Profile) LaunchSettings {
	var s LaunchSettings

	s.UserAgent = p.UserAgent

	if p.TimezoneMode == TimezoneCustom {
		s.TimezoneID = p.TimezoneValue
	}

	switch p.GeolocationMode {
	case GeolocationManual:
		if p.GeolocationLat != nil && p.GeolocationLon != nil {
			s.Geolocation = &Geolocation{Latitude: *p.GeolocationLat, Longitude: *p.GeolocationLon}
			s.Permissions = []string{PermissionGeolocation}
		}
	case GeolocationBlock:
		s.Permissions = []string{}
	}

	if p.LanguageMode == LanguageCustom {
		if langs := ParseLanguages(p.Languages); len(langs) > 0 {
			s.Locale = langs[0]
			s.ExtraHeaders = map[string]string{"Accept-Language": strings.Join(langs, ",")}
		}
	}

	return s
}

// ParseLanguages decodes a stored JSON language list. Malformed input
// yields an empty list.
func ParseLanguages(raw string) []string {
	if raw == "" {
		return nil
	}
	var langs []string
	if err := json.Unmarshal([]byte(raw), &langs); err != nil {
		return nil
	}
	out := langs[:0]
	for _, l := range langs {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
