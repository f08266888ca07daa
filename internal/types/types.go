package types

type HealthResponse struct {
	Status    string               `json:"status"`
	Version   string               `json:"version"`
	Timestamp string               `json:"timestamp"`
	Running   int                  `json:"running"`
	Lanes     map[string]LaneStats `json:"lanes,omitempty"`
}

type LaneStats struct {
	Queued        int `json:"queued"`
	Active        int `json:"active"`
	MaxConcurrent int `json:"max_concurrent"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Proxies

type ProxyItem struct {
	Id        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type ProxyRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

type UpdateProxyRequest struct {
	Id int64 `path:"id"`
	ProxyRequest
}

type ListProxiesResponse struct {
	Proxies []ProxyItem `json:"proxies"`
}

type ProxyStatus struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type ProxyStatusResponse struct {
	Statuses map[int64]ProxyStatus `json:"statuses"`
}

type CheckProxiesRequest struct {
	Ids []int64 `json:"ids,omitempty"`
}

type CheckProxiesResponse struct {
	Total   int `json:"total"`
	Working int `json:"working"`
	Failed  int `json:"failed"`
}

type ImportProxiesResponse struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Profiles

type ProfileItem struct {
	Id              int64      `json:"id"`
	ProfileId       string     `json:"profileId"`
	Name            string     `json:"name"`
	Notes           string     `json:"notes,omitempty"`
	Tags            string     `json:"tags,omitempty"`
	Os              string     `json:"os"`
	UserAgent       string     `json:"userAgent"`
	ProxyId         *int64     `json:"proxyId,omitempty"`
	Proxy           *ProxyItem `json:"proxy,omitempty"`
	OpenTabs        []string   `json:"openTabs"`
	TimezoneMode    string     `json:"timezoneMode"`
	TimezoneValue   string     `json:"timezoneValue,omitempty"`
	GeolocationMode string     `json:"geolocationMode"`
	GeolocationLat  *float64   `json:"geolocationLat,omitempty"`
	GeolocationLon  *float64   `json:"geolocationLon,omitempty"`
	LanguageMode    string     `json:"languageMode"`
	Languages       []string   `json:"languages,omitempty"`
	Running         bool       `json:"running"`
	CreatedAt       string     `json:"createdAt"`
	UpdatedAt       string     `json:"updatedAt"`
}

type ProfileRequest struct {
	Name            string        `json:"name"`
	Notes           string        `json:"notes,omitempty"`
	Tags            string        `json:"tags,omitempty"`
	Os              string        `json:"os,omitempty"`
	UserAgent       string        `json:"userAgent,omitempty"`
	ProxyId         *int64        `json:"proxyId,omitempty"`
	NewProxy        *ProxyRequest `json:"newProxy,omitempty"`
	OpenTabs        []string      `json:"openTabs,omitempty"`
	TimezoneMode    string        `json:"timezoneMode,omitempty"`
	TimezoneValue   string        `json:"timezoneValue,omitempty"`
	GeolocationMode string        `json:"geolocationMode,omitempty"`
	GeolocationLat  *float64      `json:"geolocationLat,omitempty"`
	GeolocationLon  *float64      `json:"geolocationLon,omitempty"`
	LanguageMode    string        `json:"languageMode,omitempty"`
	Languages       []string      `json:"languages,omitempty"`
}

type UpdateProfileRequest struct {
	ProfileId string `path:"id"`
	ProfileRequest
}

type ListProfilesResponse struct {
	Profiles []ProfileItem `json:"profiles"`
}

type ProfileStatusResponse struct {
	ProfileId string `json:"profileId"`
	Running   bool   `json:"running"`
}

// Settings

type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SetSettingRequest struct {
	Key   string `path:"key"`
	Value string `json:"value"`
}
