package handler

import (
	"net/http"
	"time"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/httputil"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/svc"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/types"
)

// HealthCheckHandler reports liveness, the running browser count and lane load
func HealthCheckHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := svcCtx.Version
		if version == "" {
			version = "dev"
		}
		stats := svcCtx.Lanes.Stats()
		lanes := make(map[string]types.LaneStats, len(stats))
		for name, s := range stats {
			lanes[name] = types.LaneStats{Queued: s.Queued, Active: s.Active, MaxConcurrent: s.MaxConcurrent}
		}
		httputil.OkJSON(w, &types.HealthResponse{
			Status:    "healthy",
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Running:   len(svcCtx.Browser.Running()),
			Lanes:     lanes,
		})
	}
}
