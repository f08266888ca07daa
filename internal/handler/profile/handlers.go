package profile

import (
	"errors"
	"net/http"
	"time"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/handler/proxy"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/httputil"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/profiles"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/proxies"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/svc"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/types"
)

// ListProfilesHandler returns all profiles with their running state
func ListProfilesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svcCtx.Profiles.List(r.Context())
		if err != nil {
			logging.Errorf("Failed to list profiles: %v", err)
			httputil.InternalError(w, "failed to list profiles")
			return
		}
		resp := types.ListProfilesResponse{Profiles: make([]types.ProfileItem, len(list))}
		for i, p := range list {
			resp.Profiles[i] = toItem(p)
		}
		httputil.OkJSON(w, resp)
	}
}

// GetProfileHandler returns one profile
func GetProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svcCtx.Profiles.Get(r.Context(), httputil.PathVar(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, toItem(p))
	}
}

// CreateProfileHandler creates a profile and its storage directory
func CreateProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ProfileRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		p, err := svcCtx.Profiles.Create(r.Context(), toInput(req))
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, toItem(p))
	}
}

// UpdateProfileHandler replaces every field of a profile
func UpdateProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpdateProfileRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		p, err := svcCtx.Profiles.Update(r.Context(), req.ProfileId, toInput(req.ProfileRequest))
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, toItem(p))
	}
}

// DeleteProfileHandler stops and deletes a profile
func DeleteProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svcCtx.Profiles.Delete(r.Context(), httputil.PathVar(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, types.MessageResponse{Message: "profile deleted"})
	}
}

// ToggleProfileHandler launches a stopped profile or stops a running one
func ToggleProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httputil.PathVar(r, "id")
		running, err := svcCtx.Profiles.Toggle(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, types.ProfileStatusResponse{ProfileId: id, Running: running})
	}
}

// ProfileStatusHandler reports whether a profile's browser is running
func ProfileStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svcCtx.Profiles.Get(r.Context(), httputil.PathVar(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, types.ProfileStatusResponse{ProfileId: p.ProfileID, Running: p.Running})
	}
}

func toItem(p profiles.Profile) types.ProfileItem {
	item := types.ProfileItem{
		Id:              p.ID,
		ProfileId:       p.ProfileID,
		Name:            p.Name,
		Notes:           p.Notes,
		Tags:            p.Tags,
		Os:              p.OS,
		UserAgent:       p.UserAgent,
		ProxyId:         p.ProxyID,
		OpenTabs:        profiles.StoredTabs(p.Profile),
		TimezoneMode:    p.TimezoneMode,
		TimezoneValue:   p.TimezoneValue,
		GeolocationMode: p.GeolocationMode,
		GeolocationLat:  p.GeolocationLat,
		GeolocationLon:  p.GeolocationLon,
		LanguageMode:    p.LanguageMode,
		Languages:       browser.ParseLanguages(p.Languages),
		Running:         p.Running,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if item.OpenTabs == nil {
		item.OpenTabs = []string{}
	}
	if p.Proxy != nil {
		px := proxy.ToItem(*p.Proxy)
		item.Proxy = &px
	}
	return item
}

func toInput(req types.ProfileRequest) profiles.Input {
	in := profiles.Input{
		Name:            req.Name,
		Notes:           req.Notes,
		Tags:            req.Tags,
		OS:              req.Os,
		UserAgent:       req.UserAgent,
		ProxyID:         req.ProxyId,
		OpenTabs:        req.OpenTabs,
		TimezoneMode:    req.TimezoneMode,
		TimezoneValue:   req.TimezoneValue,
		GeolocationMode: req.GeolocationMode,
		GeolocationLat:  req.GeolocationLat,
		GeolocationLon:  req.GeolocationLon,
		LanguageMode:    req.LanguageMode,
		Languages:       req.Languages,
	}
	if req.NewProxy != nil {
		px := proxy.ToInput(*req.NewProxy)
		in.NewProxy = &px
	}
	return in
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profiles.ErrProfileNotFound):
		httputil.NotFound(w, "profile not found")
	case errors.Is(err, db.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, profiles.ErrInvalidProfile), errors.Is(err, proxies.ErrInvalidProxy):
		httputil.Error(w, err)
	case errors.Is(err, browser.ErrDriverStart), errors.Is(err, browser.ErrLaunch):
		logging.Errorf("Profile launch failed: %v", err)
		httputil.ErrorWithCode(w, http.StatusBadGateway, err.Error())
	default:
		logging.Errorf("Profile request failed: %v", err)
		httputil.InternalError(w, err.Error())
	}
}
