// Package profiles creates, edits, deletes, launches and stops browser
// profiles, tying stored rows to their directories and running contexts.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/browser"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/crashlog"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/dispatch"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/proxies"
)

// ErrProfileNotFound is returned for unknown profile identifiers.
var ErrProfileNotFound = errors.New("profile not found")

// Profile is a stored profile plus its live state.
type Profile struct {
	db.Profile
	Running bool
}

// Service is the profile management API.
type Service struct {
	store   *db.Store
	manager *browser.Manager
	proxies *proxies.Service
	lanes   *dispatch.LaneManager
	log     *slog.Logger
}

// NewService wires a profile service.
func NewService(store *db.Store, manager *browser.Manager, px *proxies.Service, lanes *dispatch.LaneManager) *Service {
	return &Service{
		store:   store,
		manager: manager,
		proxies: px,
		lanes:   lanes,
		log:     logging.Component("profiles"),
	}
}

// Create stores a new profile and its directory. The directory is made
// first and removed again if the row cannot be inserted.
func (s *Service) Create(ctx context.Context, in Input) (Profile, error) {
	in = in.withDefaults()
	if in.Name == "" {
		n, err := s.store.NextProfileNumber(ctx)
		if err != nil {
			return Profile{}, err
		}
		in.Name = fmt.Sprintf("ID_%d", n)
	}
	if err := ValidateInput(in); err != nil {
		return Profile{}, err
	}

	proxyID, err := s.resolveProxy(ctx, in)
	if err != nil {
		return Profile{}, err
	}

	profileID := uuid.NewString()
	if _, err := s.manager.Dirs().Ensure(profileID); err != nil {
		return Profile{}, err
	}

	rowID, err := s.store.CreateProfile(ctx, in.params(profileID, proxyID))
	if err != nil {
		s.manager.Dirs().Remove(profileID)
		return Profile{}, err
	}
	s.log.Info("profile created", "profile_id", profileID, "name", in.Name)

	p, err := s.store.GetProfile(ctx, rowID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{Profile: p}, nil
}

// Get returns one profile with its running flag.
func (s *Service) Get(ctx context.Context, profileID string) (Profile, error) {
	p, err := s.load(ctx, profileID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{Profile: p, Running: s.manager.IsRunning(profileID)}, nil
}

// List returns all profiles, newest first, with their running flags.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	rows, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, len(rows))
	for i, p := range rows {
		out[i] = Profile{Profile: p, Running: s.manager.IsRunning(p.ProfileID)}
	}
	return out, nil
}

// Update replaces every field of a profile except its identifier. A
// running context keeps its old settings until it is relaunched.
func (s *Service) Update(ctx context.Context, profileID string, in Input) (Profile, error) {
	cur, err := s.load(ctx, profileID)
	if err != nil {
		return Profile{}, err
	}
	in = in.withDefaults()
	if err := ValidateInput(in); err != nil {
		return Profile{}, err
	}
	proxyID, err := s.resolveProxy(ctx, in)
	if err != nil {
		return Profile{}, err
	}
	if err := s.store.UpdateProfile(ctx, cur.ID, in.params(profileID, proxyID)); err != nil {
		return Profile{}, err
	}
	return s.Get(ctx, profileID)
}

// Delete stops the profile if it is running, removes its row and then
// its directory. Directory removal failures are logged only.
func (s *Service) Delete(ctx context.Context, profileID string) error {
	p, err := s.load(ctx, profileID)
	if err != nil {
		return err
	}
	s.manager.Stop(profileID)
	if err := s.store.DeleteProfile(ctx, p.ID); err != nil {
		return err
	}
	s.manager.Dirs().Remove(profileID)
	s.log.Info("profile deleted", "profile_id", profileID)
	return nil
}

// Launch starts the profile's browser and opens its stored tabs. It is a
// no-op for a profile that is already running.
func (s *Service) Launch(ctx context.Context, profileID string) error {
	p, err := s.load(ctx, profileID)
	if err != nil {
		return err
	}
	if s.manager.IsRunning(profileID) {
		return nil
	}

	c, err := s.manager.Launch(ctx, profileID, browser.ProxyConfigFor(p.Proxy), browser.SettingsFor(p))
	if err != nil {
		return err
	}
	if err := browser.OpenTabs(c, StoredTabs(p)); err != nil {
		s.log.Warn("open tabs failed", "profile_id", profileID, "error", err)
	}
	return nil
}

// Stop closes the profile's browser if it is running.
func (s *Service) Stop(ctx context.Context, profileID string) error {
	if _, err := s.load(ctx, profileID); err != nil {
		return err
	}
	s.manager.Stop(profileID)
	return nil
}

// IsRunning reports the live state of a profile.
func (s *Service) IsRunning(profileID string) bool {
	return s.manager.IsRunning(profileID)
}

// Toggle stops a running profile or launches a stopped one on the launch
// lane and reports the resulting state.
func (s *Service) Toggle(ctx context.Context, profileID string) (running bool, err error) {
	err = s.lanes.Enqueue(ctx, dispatch.LaneLaunch, func(ctx context.Context) error {
		if s.manager.IsRunning(profileID) {
			running = false
			return s.Stop(ctx, profileID)
		}
		if err := s.Launch(ctx, profileID); err != nil {
			if !errors.Is(err, ErrProfileNotFound) {
				crashlog.LogError("profiles", fmt.Errorf("launch: %w", err), map[string]string{"profile_id": profileID})
			}
			return err
		}
		running = true
		return nil
	}, dispatch.WithDescription("toggle "+profileID))
	return running, err
}

func (s *Service) load(ctx context.Context, profileID string) (db.Profile, error) {
	p, err := s.store.GetProfileByProfileID(ctx, profileID)
	if errors.Is(err, db.ErrNotFound) {
		return db.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, profileID)
	}
	return p, err
}

// resolveProxy returns the proxy row the profile should reference,
// creating an inline proxy when one was given.
func (s *Service) resolveProxy(ctx context.Context, in Input) (*int64, error) {
	if in.NewProxy != nil {
		px, err := s.proxies.Create(ctx, *in.NewProxy)
		if err != nil {
			return nil, err
		}
		return &px.ID, nil
	}
	if in.ProxyID != nil {
		if _, err := s.proxies.Get(ctx, *in.ProxyID); err != nil {
			return nil, fmt.Errorf("proxy %d: %w", *in.ProxyID, err)
		}
	}
	return in.ProxyID, nil
}
