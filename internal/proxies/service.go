package proxies

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/lifecycle"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
)

// StatusForgetter drops cached reachability for deleted proxies.
type StatusForgetter interface {
	Forget(id int64)
}

// Service is the proxy management API.
type Service struct {
	store    *db.Store
	statuses StatusForgetter
	log      *slog.Logger
	debounce time.Duration
}

// NewService creates a proxy service. statuses may be nil.
func NewService(store *db.Store, statuses StatusForgetter) *Service {
	return &Service{
		store:    store,
		statuses: statuses,
		log:      logging.Component("proxies"),
		debounce: 500 * time.Millisecond,
	}
}

// Create validates and stores a proxy.
func (s *Service) Create(ctx context.Context, in Input) (db.Proxy, error) {
	if err := in.Validate(); err != nil {
		return db.Proxy{}, err
	}
	return s.store.CreateProxy(ctx, in.params())
}

// Get returns a proxy or db.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (db.Proxy, error) {
	return s.store.GetProxy(ctx, id)
}

// List returns all proxies.
func (s *Service) List(ctx context.Context) ([]db.Proxy, error) {
	return s.store.ListProxies(ctx)
}

// Update validates and replaces a proxy.
func (s *Service) Update(ctx context.Context, id int64, in Input) (db.Proxy, error) {
	if err := in.Validate(); err != nil {
		return db.Proxy{}, err
	}
	if err := s.store.UpdateProxy(ctx, id, in.params()); err != nil {
		return db.Proxy{}, err
	}
	return s.store.GetProxy(ctx, id)
}

// Delete removes a proxy after detaching it from every profile.
func (s *Service) Delete(ctx context.Context, id int64) error {
	detached, err := s.store.DeleteProxy(ctx, id)
	if err != nil {
		return err
	}
	if s.statuses != nil {
		s.statuses.Forget(id)
	}
	s.log.Info("proxy deleted", "proxy_id", id, "detached_profiles", detached)
	return nil
}

// ImportResult counts the outcome of a bulk import. Skipped lines (blank,
// comments, unparseable) are in neither count.
type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Import reads one proxy per line from r.
func (s *Service) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult

	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		in, ok := ParseLine(sc.Text())
		if !ok {
			continue
		}
		in.Name = in.DefaultName()
		if _, err := s.Create(ctx, in); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", lineNum, err))
			continue
		}
		res.Imported++
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read import: %w", err)
	}
	return res, nil
}

// ImportFile imports every proxy listed in the file at path.
func (s *Service) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	res, err := s.Import(ctx, f)
	if err != nil {
		return res, err
	}
	s.log.Info("proxies imported", "file", path, "imported", res.Imported, "failed", res.Failed)
	lifecycle.EmitAsync(lifecycle.EventProxiesImported, lifecycle.ImportData{Source: path, Imported: res.Imported, Failed: res.Failed})
	return res, nil
}
