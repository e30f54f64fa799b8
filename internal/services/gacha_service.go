package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Alexander-D-Karpov/sleeves/internal/api"
	"github.com/Alexander-D-Karpov/sleeves/internal/catalog"
	"github.com/Alexander-D-Karpov/sleeves/internal/config"
	"github.com/Alexander-D-Karpov/sleeves/internal/errs"
	"github.com/Alexander-D-Karpov/sleeves/internal/handlers"
	"github.com/Alexander-D-Karpov/sleeves/internal/metrics"
	"github.com/Alexander-D-Karpov/sleeves/internal/reward"
	"github.com/Alexander-D-Karpov/sleeves/internal/search"
	"github.com/Alexander-D-Karpov/sleeves/internal/storage"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

// Gateway performs one remote round trip per call.
type Gateway interface {
	Call(ctx context.Context, req api.Request) api.Result
}

// Dependencies wires a GachaService. Only Gateway is required; everything
// else defaults to a fresh in-memory component.
type Dependencies struct {
	Gateway   Gateway
	Engine    *reward.Engine
	Inventory types.InventoryStore
	Session   types.SessionStore
	Catalog   types.CatalogSource
	// CatalogCache receives every sleeve list the backend returns.
	CatalogCache storage.SleeveSaver
	Events       *handlers.EventBus
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	Clock        func() time.Time
}

// GachaService is the single entry point for the collection, sleeve and
// session operations. Every operation tries the backend first and, when the
// call fails in any way, answers from local state instead.
type GachaService struct {
	gateway   Gateway
	engine    *reward.Engine
	inventory types.InventoryStore
	session   types.SessionStore
	catalog   types.CatalogSource
	cache     storage.SleeveSaver
	search    *search.Engine
	events    *handlers.EventBus
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       *config.Config
	now       func() time.Time
}

func NewGachaService(cfg *config.Config, deps Dependencies) (*GachaService, error) {
	if deps.Gateway == nil {
		return nil, errors.New("gacha service: gateway is required")
	}
	if cfg == nil {
		cfg = config.Default()
	}

	s := &GachaService{
		gateway:   deps.Gateway,
		engine:    deps.Engine,
		inventory: deps.Inventory,
		session:   deps.Session,
		catalog:   deps.Catalog,
		cache:     deps.CatalogCache,
		events:    deps.Events,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		cfg:       cfg,
		now:       deps.Clock,
	}

	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("gacha")
	if s.engine == nil {
		s.engine = reward.NewEngine(nil)
	}
	if s.inventory == nil {
		s.inventory = storage.NewMemoryInventory(catalog.StarterInventory(s.now()))
	}
	if s.session == nil {
		s.session = storage.NewMemorySession()
	}
	if s.catalog == nil {
		s.catalog = catalog.Builtin()
	}
	if s.events == nil {
		s.events = handlers.NewEventBus()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.search = search.NewEngine(cfg, s.inventory)

	return s, nil
}

// fallback records a failed remote call and waits out the simulated local
// latency. It only returns an error when ctx ends during the wait.
func (s *GachaService) fallback(ctx context.Context, gerr *api.GatewayError, latencyMs int) error {
	s.logger.Debug("backend unavailable, using local data",
		zap.String("op", string(gerr.Op)),
		zap.String("kind", gerr.Kind.String()),
		zap.Int("status", gerr.Status),
		zap.String("detail", gerr.Detail),
	)
	s.metrics.Fallbacks.WithLabelValues(string(gerr.Op)).Inc()

	if latencyMs <= 0 {
		return nil
	}

	timer := time.NewTimer(config.Millis(latencyMs))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *GachaService) localError(op api.Operation, err error) error {
	s.metrics.LocalErrors.WithLabelValues(string(op)).Inc()
	return err
}

// GetInventory returns the owned songs, newest first. A remote listing
// replaces the local one.
func (s *GachaService) GetInventory(ctx context.Context) ([]types.OwnedSong, error) {
	items, gerr := api.Decode(s.gateway.Call(ctx, api.Request{Op: api.OpInventory}), api.ValidInventory)
	if gerr == nil {
		s.inventory.Reset(items)
		s.events.Publish(handlers.EventInventoryReset, s.inventory.List())
		return s.inventory.List(), nil
	}

	if err := s.fallback(ctx, gerr, s.cfg.Fallback.Latency.Inventory); err != nil {
		return nil, err
	}
	return s.inventory.List(), nil
}

// GetSleeves lists the sleeves on offer. Remote listings are written
// through to the catalog cache when one is configured.
func (s *GachaService) GetSleeves(ctx context.Context) ([]types.Sleeve, error) {
	sleeves, gerr := api.Decode(s.gateway.Call(ctx, api.Request{Op: api.OpSleeves}), api.ValidSleeves)
	if gerr == nil {
		s.cacheSleeves(ctx, sleeves)
		return sleeves, nil
	}

	if err := s.fallback(ctx, gerr, s.cfg.Fallback.Latency.Sleeves); err != nil {
		return nil, err
	}

	sleeves, err := s.catalog.Sleeves(ctx)
	if err != nil {
		return nil, s.localError(api.OpSleeves, fmt.Errorf("local sleeves: %w", err))
	}
	return sleeves, nil
}

func (s *GachaService) cacheSleeves(ctx context.Context, sleeves []types.Sleeve) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveSleeves(context.WithoutCancel(ctx), sleeves); err != nil {
		s.logger.Warn("cache sleeves", zap.Error(err))
	}
}

// OpenSleeve draws one song from the sleeve and adds it to the collection.
// The call runs to completion even if ctx is cancelled.
//
// Every remote failure falls back to a local draw. With fallback.strict_open
// set, an unreadable 2xx answer instead returns errs.ErrOutcomeUnknown, since
// the grant may already exist remotely.
func (s *GachaService) OpenSleeve(ctx context.Context, sleeveID string) (types.OwnedSong, error) {
	ctx = context.WithoutCancel(ctx)

	owned, gerr := api.Decode(s.gateway.Call(ctx, api.Request{Op: api.OpOpenSleeve, SleeveID: sleeveID}), api.ValidOwnedSong)
	if gerr == nil {
		s.grant(owned, "remote")
		return owned, nil
	}

	if gerr.Kind == api.KindMalformed && s.cfg.Fallback.StrictOpen {
		s.logger.Warn("open sleeve response unreadable", zap.String("sleeve", sleeveID), zap.Error(gerr))
		return types.OwnedSong{}, s.localError(api.OpOpenSleeve, fmt.Errorf("open %q: %w", sleeveID, errs.ErrOutcomeUnknown))
	}

	_ = s.fallback(ctx, gerr, s.cfg.Fallback.Latency.Open)

	sleeve, err := s.catalog.Sleeve(ctx, sleeveID)
	if err != nil {
		return types.OwnedSong{}, s.localError(api.OpOpenSleeve, err)
	}
	if !sleeve.CanOpen() {
		return types.OwnedSong{}, s.localError(api.OpOpenSleeve, fmt.Errorf("sleeve %q: %w", sleeveID, errs.ErrEmptySleeve))
	}

	owned, err = s.engine.Roll(sleeve.Contents, s.now())
	if err != nil {
		return types.OwnedSong{}, s.localError(api.OpOpenSleeve, fmt.Errorf("sleeve %q: %w", sleeveID, err))
	}

	s.grant(owned, "local")
	return owned, nil
}

func (s *GachaService) grant(owned types.OwnedSong, path string) {
	s.inventory.Add(owned)
	s.metrics.Draws.WithLabelValues(string(owned.Rarity), path).Inc()
	s.events.Publish(handlers.EventInventoryAdded, owned)

	s.logger.Debug("song granted",
		zap.String("song", owned.ID),
		zap.String("rarity", string(owned.Rarity)),
		zap.String("path", path),
	)
}

// GetSession returns the signed-in user or nil.
func (s *GachaService) GetSession(ctx context.Context) (*types.AuthUser, error) {
	session, gerr := api.Decode(s.gateway.Call(ctx, api.Request{Op: api.OpSession}), api.ValidSession)
	if gerr == nil {
		s.setSession(session.User)
		return s.session.Current(), nil
	}

	if err := s.fallback(ctx, gerr, s.cfg.Fallback.Latency.Session); err != nil {
		return nil, err
	}
	return s.session.Current(), nil
}

func (s *GachaService) Login(ctx context.Context, creds types.Credentials) (*types.AuthUser, error) {
	return s.authenticate(ctx, api.OpLogin, creds)
}

// Register creates an account. Offline it behaves exactly like Login.
func (s *GachaService) Register(ctx context.Context, creds types.Credentials) (*types.AuthUser, error) {
	return s.authenticate(ctx, api.OpRegister, creds)
}

func (s *GachaService) authenticate(ctx context.Context, op api.Operation, creds types.Credentials) (*types.AuthUser, error) {
	ctx = context.WithoutCancel(ctx)

	user, gerr := api.DecodeUser(s.gateway.Call(ctx, api.Request{Op: op, Body: creds}))
	if gerr == nil {
		s.setSession(user)
		return s.session.Current(), nil
	}

	_ = s.fallback(ctx, gerr, s.cfg.Fallback.Latency.Login)

	local, err := s.localUser(creds)
	if err != nil {
		return nil, s.localError(op, err)
	}
	s.setSession(local)
	return s.session.Current(), nil
}

func (s *GachaService) localUser(creds types.Credentials) (*types.AuthUser, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" || strings.TrimSpace(creds.Password) == "" {
		return nil, errs.ErrInvalidCredentials
	}

	user := &types.AuthUser{
		ID:          "local-" + strings.ToLower(username),
		Username:    username,
		DisplayName: username,
		Wallet:      s.cfg.User.StartingWallet,
	}
	if s.cfg.User.AvatarURL != "" {
		avatar := s.cfg.User.AvatarURL
		user.AvatarURL = &avatar
	}
	return user, nil
}

// Logout clears the session locally whether or not the backend answered.
func (s *GachaService) Logout(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	res := s.gateway.Call(ctx, api.Request{Op: api.OpLogout})
	if !res.OK() {
		_ = s.fallback(ctx, res.Err, s.cfg.Fallback.Latency.Logout)
	}

	s.setSession(nil)
	return nil
}

func (s *GachaService) setSession(user *types.AuthUser) {
	prev := s.session.Current()
	if user == nil {
		s.session.Clear()
	} else {
		s.session.Set(*user)
	}

	if !reflect.DeepEqual(prev, user) {
		s.events.Publish(handlers.EventSessionChanged, s.session.Current())
	}
}

// SleevesForGenre lists the sleeves of one genre in catalog order.
func (s *GachaService) SleevesForGenre(ctx context.Context, genre types.SleeveGenre) ([]types.Sleeve, error) {
	sleeves, err := s.GetSleeves(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.ForGenre(sleeves, genre), nil
}

// SleeveOdds gives the chance of drawing each rarity from one sleeve.
func (s *GachaService) SleeveOdds(ctx context.Context, sleeveID string) (map[types.Rarity]float64, error) {
	sleeves, err := s.GetSleeves(ctx)
	if err != nil {
		return nil, err
	}
	for _, sleeve := range sleeves {
		if sleeve.ID == sleeveID {
			return s.engine.RarityOdds(sleeve.Contents)
		}
	}
	return nil, fmt.Errorf("sleeve %q: %w", sleeveID, errs.ErrSleeveNotFound)
}

// Collection returns the inventory rarest first; equal rarities stay newest first.
func (s *GachaService) Collection(ctx context.Context) ([]types.OwnedSong, error) {
	items, err := s.GetInventory(ctx)
	if err != nil {
		return nil, err
	}
	return search.SortByRarity(items), nil
}

// SearchCollection matches the local collection by title and artist.
func (s *GachaService) SearchCollection(query string, limit int) *types.SearchResults {
	return s.search.Search(query, limit)
}

// Subscribe registers handler for one of the handlers.Event* types and
// returns a func that removes it.
func (s *GachaService) Subscribe(event string, handler handlers.EventHandler) func() {
	return s.events.Subscribe(event, handler)
}

// ResetLocal restores the starter collection. The backend is not touched.
func (s *GachaService) ResetLocal() {
	seed := catalog.StarterInventory(s.now())
	s.inventory.Reset(seed)
	s.events.Publish(handlers.EventInventoryReset, s.inventory.List())
}

func (s *GachaService) Metrics() *metrics.Metrics {
	return s.metrics
}
