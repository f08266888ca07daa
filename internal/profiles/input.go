package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/fingerprint"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/proxies"
)

// ErrInvalidProfile wraps every profile validation failure.
var ErrInvalidProfile = errors.New("invalid profile")

// Input is a profile as entered in a form or sent to the API. At most one
// of ProxyID and NewProxy may be set; NewProxy is saved first and then
// referenced.
type Input struct {
	Name            string
	Notes           string
	Tags            string
	OS              string
	UserAgent       string
	ProxyID         *int64
	NewProxy        *proxies.Input
	OpenTabs        []string
	TimezoneMode    string
	TimezoneValue   string
	GeolocationMode string
	GeolocationLat  *float64
	GeolocationLon  *float64
	LanguageMode    string
	Languages       []string
}

// withDefaults fills the modes and OS that were left blank.
func (in Input) withDefaults() Input {
	in.Name = strings.TrimSpace(in.Name)
	if in.OS == "" {
		in.OS = string(fingerprint.Windows)
	} else if o, ok := fingerprint.Parse(in.OS); ok {
		in.OS = string(o)
	}
	if in.TimezoneMode == "" {
		in.TimezoneMode = browser.TimezoneIP
	}
	if in.GeolocationMode == "" {
		in.GeolocationMode = browser.GeolocationIP
	}
	if in.LanguageMode == "" {
		in.LanguageMode = browser.LanguageIP
	}
	return in
}

// ValidateInput checks a profile at the data-entry boundary.
func ValidateInput(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if !fingerprint.OS(in.OS).Valid() {
		return fmt.Errorf("%w: unknown os %q", ErrInvalidProfile, in.OS)
	}
	if in.ProxyID != nil && in.NewProxy != nil {
		return fmt.Errorf("%w: proxy_id and new_proxy are mutually exclusive", ErrInvalidProfile)
	}

	switch in.TimezoneMode {
	case browser.TimezoneIP, browser.TimezoneSystem:
	case browser.TimezoneCustom:
		if in.TimezoneValue == "" {
			return fmt.Errorf("%w: custom timezone requires a value", ErrInvalidProfile)
		}
		if _, err := time.LoadLocation(in.TimezoneValue); err != nil {
			return fmt.Errorf("%w: timezone %q: %v", ErrInvalidProfile, in.TimezoneValue, err)
		}
	default:
		return fmt.Errorf("%w: timezone mode %q", ErrInvalidProfile, in.TimezoneMode)
	}

	switch in.GeolocationMode {
	case browser.GeolocationIP, browser.GeolocationBlock:
	case browser.GeolocationManual:
		if in.GeolocationLat == nil || in.GeolocationLon == nil {
			return fmt.Errorf("%w: manual geolocation requires latitude and longitude", ErrInvalidProfile)
		}
		if lat := *in.GeolocationLat; lat < -90 || lat > 90 {
			return fmt.Errorf("%w: latitude %v out of range", ErrInvalidProfile, lat)
		}
		if lon := *in.GeolocationLon; lon < -180 || lon > 180 {
			return fmt.Errorf("%w: longitude %v out of range", ErrInvalidProfile, lon)
		}
	default:
		return fmt.Errorf("%w: geolocation mode %q", ErrInvalidProfile, in.GeolocationMode)
	}

	switch in.LanguageMode {
	case browser.LanguageIP:
	case browser.LanguageCustom:
		if len(cleanList(in.Languages)) == 0 {
			return fmt.Errorf("%w: custom language requires at least one language", ErrInvalidProfile)
		}
	default:
		return fmt.Errorf("%w: language mode %q", ErrInvalidProfile, in.LanguageMode)
	}

	if bad := invalidTabs(in.OpenTabs); len(bad) > 0 {
		return fmt.Errorf("%w: invalid tab urls: %s", ErrInvalidProfile, strings.Join(bad, ", "))
	}
	return nil
}

// ParseOpenTabs reads one URL per non-empty line.
func ParseOpenTabs(text string) []string {
	return cleanList(strings.Split(text, "\n"))
}

// ValidateOpenTabs returns the URLs in text that are not absolute http or
// https links.
func ValidateOpenTabs(text string) []string {
	return invalidTabs(ParseOpenTabs(text))
}

func invalidTabs(tabs []string) []string {
	var bad []string
	for _, t := range cleanList(tabs) {
		u, err := url.Parse(t)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			bad = append(bad, t)
		}
	}
	return bad
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func encodeList(list []string) string {
	list = cleanList(list)
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

// StoredTabs decodes the open_tabs column. Malformed data yields no tabs.
func StoredTabs(p db.Profile) []string {
	var tabs []string
	if err := json.Unmarshal([]byte(p.OpenTabs), &tabs); err != nil {
		return nil
	}
	return cleanList(tabs)
}

func (in Input) params(profileID string, proxyID *int64) db.ProfileParams {
	arg := db.ProfileParams{
		ProfileID:       profileID,
		Name:            in.Name,
		Notes:           in.Notes,
		ProxyID:         proxyID,
		Tags:            in.Tags,
		OS:              in.OS,
		UserAgent:       strings.TrimSpace(in.UserAgent),
		OpenTabs:        encodeList(in.OpenTabs),
		TimezoneMode:    in.TimezoneMode,
		GeolocationMode: in.GeolocationMode,
		LanguageMode:    in.LanguageMode,
	}
	if in.TimezoneMode == browser.TimezoneCustom {
		arg.TimezoneValue = in.TimezoneValue
	}
	if in.GeolocationMode == browser.GeolocationManual {
		arg.GeolocationLat, arg.GeolocationLon = in.GeolocationLat, in.GeolocationLon
	}
	if in.LanguageMode == browser.LanguageCustom {
		arg.Languages = encodeList(in.Languages)
	}
	if arg.UserAgent == "" {
		arg.UserAgent = fingerprint.UserAgent(fingerprint.OS(in.OS))
	}
	return arg
}
