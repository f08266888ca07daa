package settings

import (
	"net/http"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/httputil"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/svc"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/types"
)

// GetSettingHandler returns a setting value; unknown keys read as empty
func GetSettingHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := httputil.PathVar(r, "key")
		value, err := svcCtx.DB.GetSetting(r.Context(), key, httputil.QueryString(r, "default", ""))
		if err != nil {
			logging.Errorf("Failed to get setting %s: %v", key, err)
			httputil.InternalError(w, "failed to get setting")
			return
		}
		httputil.OkJSON(w, types.SettingResponse{Key: key, Value: value})
	}
}

// SetSettingHandler stores a setting value
func SetSettingHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SetSettingRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if req.Key == "" {
			httputil.ErrorWithCode(w, http.StatusBadRequest, "key is required")
			return
		}
		if err := svcCtx.DB.SetSetting(r.Context(), req.Key, req.Value); err != nil {
			logging.Errorf("Failed to set setting %s: %v", req.Key, err)
			httputil.InternalError(w, "failed to set setting")
			return
		}
		httputil.OkJSON(w, types.SettingResponse{Key: req.Key, Value: req.Value})
	}
}
