package proxy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/httputil"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/proxies"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/proxycheck"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/svc"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/types"
)

// maxImportBytes caps the body of an import request.
const maxImportBytes = 4 << 20

// ListProxiesHandler returns every stored proxy
func ListProxiesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svcCtx.Proxies.List(r.Context())
		if err != nil {
			logging.Errorf("Failed to list proxies: %v", err)
			httputil.InternalError(w, "failed to list proxies")
			return
		}
		resp := types.ListProxiesResponse{Proxies: make([]types.ProxyItem, len(list))}
		for i, p := range list {
			resp.Proxies[i] = ToItem(p)
		}
		httputil.OkJSON(w, resp)
	}
}

// CreateProxyHandler validates and stores a proxy
func CreateProxyHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ProxyRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		p, err := svcCtx.Proxies.Create(r.Context(), ToInput(req))
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, ToItem(p))
	}
}

// UpdateProxyHandler replaces a proxy
func UpdateProxyHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpdateProxyRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		p, err := svcCtx.Proxies.Update(r.Context(), req.Id, ToInput(req.ProxyRequest))
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, ToItem(p))
	}
}

// DeleteProxyHandler deletes a proxy and detaches it from its profiles
func DeleteProxyHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(httputil.PathVar(r, "id"), 10, 64)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		if err := svcCtx.Proxies.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, types.MessageResponse{Message: "proxy deleted"})
	}
}

// CheckProxyHandler starts a reachability check of one proxy. The result
// is read back from the status endpoint.
func CheckProxyHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(httputil.PathVar(r, "id"), 10, 64)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		if _, err := svcCtx.Proxies.Get(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		svcCtx.Checker.CheckAsync(r.Context(), id)
		httputil.WriteJSON(w, http.StatusAccepted, types.MessageResponse{Message: "check started"})
	}
}

// CheckProxiesHandler checks the given proxies, or all of them, and
// returns once every check has finished
func CheckProxiesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CheckProxiesRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		var (
			sum proxycheck.Summary
			err error
		)
		if len(req.Ids) > 0 {
			sum, err = svcCtx.Checker.CheckSelected(r.Context(), req.Ids)
		} else {
			sum, err = svcCtx.Checker.CheckAll(r.Context())
		}
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, types.CheckProxiesResponse{Total: sum.Total, Working: sum.Working, Failed: sum.Failed})
	}
}

// ProxyStatusHandler returns the last known reachability of every checked proxy
func ProxyStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := svcCtx.Checker.Statuses()
		resp := types.ProxyStatusResponse{Statuses: make(map[int64]types.ProxyStatus, len(statuses))}
		for id, s := range statuses {
			resp.Statuses[id] = types.ProxyStatus{
				Status:    string(s.State),
				Error:     s.Error,
				UpdatedAt: formatTime(s.UpdatedAt),
			}
		}
		httputil.OkJSON(w, resp)
	}
}

// ImportProxiesHandler imports one proxy per line from the request body.
// Bodies over maxImportBytes are rejected whole.
func ImportProxiesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.ErrorWithCode(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("import body exceeds %d bytes", maxImportBytes))
				return
			}
			httputil.Error(w, err)
			return
		}
		res, err := svcCtx.Proxies.Import(r.Context(), bytes.NewReader(body))
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.OkJSON(w, types.ImportProxiesResponse{Imported: res.Imported, Failed: res.Failed, Errors: res.Errors})
	}
}

// ToItem converts a stored proxy for the API.
func ToItem(p db.Proxy) types.ProxyItem {
	return types.ProxyItem{
		Id:        p.ID,
		Name:      p.Name,
		Type:      p.Type,
		Host:      p.Host,
		Port:      p.Port,
		Username:  p.Username,
		Password:  p.Password,
		CreatedAt: formatTime(p.CreatedAt),
	}
}

// ToInput converts an API request to service input.
func ToInput(req types.ProxyRequest) proxies.Input {
	return proxies.Input{
		Name:     req.Name,
		Type:     req.Type,
		Host:     req.Host,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		httputil.NotFound(w, "proxy not found")
	case errors.Is(err, proxies.ErrInvalidProxy):
		httputil.Error(w, err)
	default:
		logging.Errorf("Proxy request failed: %v", err)
		httputil.InternalError(w, err.Error())
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
