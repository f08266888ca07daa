package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/handler"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/handler/profile"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/handler/proxy"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/handler/settings"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/lifecycle"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/svc"
)

// ServerOptions holds optional settings for the server
type ServerOptions struct {
	Quiet bool // Suppress request logging and startup messages
}

// Run serves the local API on addr until ctx is cancelled, then shuts the
// listener down gracefully. The caller owns svcCtx and closes it.
func Run(ctx context.Context, addr string, svcCtx *svc.ServiceContext, opts ...ServerOptions) error {
	var o ServerOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use - only one instance allowed per computer: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           NewRouter(svcCtx, o),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if !o.Quiet {
		logging.Infof("Server ready at http://%s", ln.Addr())
	}
	lifecycle.Emit(lifecycle.EventServerStarted, ln.Addr().String())

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	if !o.Quiet {
		logging.Info("Shutting down server gracefully...")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// NewRouter builds the API routes.
func NewRouter(svcCtx *svc.ServiceContext, opts ServerOptions) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if !opts.Quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(corsMiddleware())

	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	r.Route("/api/v1", func(r chi.Router) {
		registerProfileRoutes(r, svcCtx)
		registerProxyRoutes(r, svcCtx)

		r.Get("/settings/{key}", settings.GetSettingHandler(svcCtx))
		r.Put("/settings/{key}", settings.SetSettingHandler(svcCtx))
	})

	return r
}

func registerProfileRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	r.Get("/profiles", profile.ListProfilesHandler(svcCtx))
	r.Post("/profiles", profile.CreateProfileHandler(svcCtx))
	r.Get("/profiles/{id}", profile.GetProfileHandler(svcCtx))
	r.Put("/profiles/{id}", profile.UpdateProfileHandler(svcCtx))
	r.Delete("/profiles/{id}", profile.DeleteProfileHandler(svcCtx))
	r.Post("/profiles/{id}/toggle", profile.ToggleProfileHandler(svcCtx))
	r.Get("/profiles/{id}/status", profile.ProfileStatusHandler(svcCtx))
}

func registerProxyRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	r.Get("/proxies", proxy.ListProxiesHandler(svcCtx))
	r.Post("/proxies", proxy.CreateProxyHandler(svcCtx))
	r.Get("/proxies/status", proxy.ProxyStatusHandler(svcCtx))
	r.Post("/proxies/check", proxy.CheckProxiesHandler(svcCtx))
	r.Post("/proxies/import", proxy.ImportProxiesHandler(svcCtx))
	r.Put("/proxies/{id}", proxy.UpdateProxyHandler(svcCtx))
	r.Delete("/proxies/{id}", proxy.DeleteProxyHandler(svcCtx))
	r.Post("/proxies/{id}/check", proxy.CheckProxyHandler(svcCtx))
}

// corsMiddleware handles CORS. The API is local, so only localhost origins are allowed.
func corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && isLocalhostOrigin(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			// Non-localhost origins get no CORS headers → browser blocks the request

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
