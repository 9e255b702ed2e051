// Package appstate owns the console's top-level state: catalog, orders, shop, user and language.
package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/bazary-backend/internal/kvstore"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
	"github.com/angelmondragon/bazary-backend/pkg/models"
	"go.uber.org/multierr"
)

// State is an immutable snapshot; every update swaps in a fresh copy.
type State struct {
	Products         []models.Product   `json:"products"`
	Orders           []models.Order     `json:"orders"`
	Shop             models.Shop        `json:"shop"`
	User             models.UserProfile `json:"user"`
	Language         enums.Language     `json:"language"`
	LanguageSelected bool               `json:"languageSelected"`
}

func defaultState() State {
	return State{
		Products: []models.Product{},
		Orders:   []models.Order{},
		Shop:     models.DefaultShop(),
		User:     models.DefaultUser(),
		Language: enums.DefaultLanguage,
	}
}

func (s State) clone() State {
	out := s
	out.Products = models.CloneProducts(s.Products)
	out.Orders = models.CloneOrders(s.Orders)
	return out
}

// Service loads state once and persists whole documents on every change.
type Service struct {
	store kvstore.Store
	logg  *logger.Logger

	mu    sync.RWMutex
	state State
}

// New returns a service holding defaults until Load is called.
func New(store kvstore.Store, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{store: store, logg: logg, state: defaultState()}
}

// Load reads every document. Missing or malformed documents fall back to defaults; only a store
// transport failure is reported, and defaults stay installed for whatever could not be read.
func (s *Service) Load(ctx context.Context) error {
	next := defaultState()
	var errs error

	if raw, ok, err := s.read(ctx, kvstore.KeyProducts); err != nil {
		errs = multierr.Append(errs, err)
	} else if ok {
		var products []models.Product
		if s.decode(ctx, kvstore.KeyProducts, raw, &products) {
			next.Products = dedupeProducts(products)
		}
	}

	if raw, ok, err := s.read(ctx, kvstore.KeyOrders); err != nil {
		errs = multierr.Append(errs, err)
	} else if ok {
		var orders []models.Order
		if s.decode(ctx, kvstore.KeyOrders, raw, &orders) && orders != nil {
			next.Orders = orders
		}
	}

	if raw, ok, err := s.read(ctx, kvstore.KeyShop); err != nil {
		errs = multierr.Append(errs, err)
	} else if ok {
		var shop models.Shop
		if s.decode(ctx, kvstore.KeyShop, raw, &shop) {
			next.Shop = shop
		}
	}

	if raw, ok, err := s.read(ctx, kvstore.KeyUser); err != nil {
		errs = multierr.Append(errs, err)
	} else if ok {
		var user models.UserProfile
		if s.decode(ctx, kvstore.KeyUser, raw, &user) {
			next.User = user
		}
	}

	if raw, ok, err := s.read(ctx, kvstore.KeyLanguage); err != nil {
		errs = multierr.Append(errs, err)
	} else if ok {
		if lang, parseErr := enums.ParseLanguage(strings.Trim(raw, `" `)); parseErr == nil {
			next.Language = lang
			next.LanguageSelected = true
		} else {
			s.logg.Warn(s.logg.WithField(ctx, "key", kvstore.KeyLanguage), "appstate.document.invalid")
		}
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "load state documents")
	}
	return nil
}

func (s *Service) read(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "key", key), "appstate.document.read_failed", err)
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	// A stored JSON null counts as a missing document so defaults apply.
	trimmed := strings.TrimSpace(raw)
	return raw, trimmed != "" && trimmed != "null", nil
}

func (s *Service) decode(ctx context.Context, key, raw string, dest any) bool {
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()})
		s.logg.Warn(ctx, "appstate.document.invalid")
		return false
	}
	return true
}

func dedupeProducts(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		if p.Variants == nil {
			p.Variants = []models.Variant{}
		}
		out = append(out, p)
	}
	return out
}

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Service) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneProducts(s.state.Products)
}

func (s *Service) Product(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.state.Products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.Product{}, false
}

func (s *Service) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneOrders(s.state.Orders)
}

func (s *Service) Shop() models.Shop {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Shop
}

func (s *Service) User() models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

func (s *Service) Language() enums.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Language
}

// IsRegistered gates everything except settings and health.
func (s *Service) IsRegistered() bool {
	return s.User().IsRegistered
}

// AddProducts prepends products so the newest appear first. Ids must be unique across the catalog.
func (s *Service) AddProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]struct{}, len(s.state.Products)+len(products))
	for _, p := range s.state.Products {
		existing[p.ID] = struct{}{}
	}
	for _, p := range products {
		if strings.TrimSpace(p.ID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if _, dup := existing[p.ID]; dup {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %s already exists", p.ID))
		}
		existing[p.ID] = struct{}{}
	}

	next := make([]models.Product, 0, len(s.state.Products)+len(products))
	next = append(next, models.CloneProducts(products)...)
	next = append(next, models.CloneProducts(s.state.Products)...)
	return s.commitProducts(ctx, next)
}

// UpdateProduct applies mutate to a copy of the product and persists the catalog.
func (s *Service) UpdateProduct(ctx context.Context, id string, mutate func(*models.Product) error) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	updated := s.state.Products[idx].Clone()
	if err := mutate(&updated); err != nil {
		return models.Product{}, err
	}
	updated.ID = id

	next := models.CloneProducts(s.state.Products)
	next[idx] = updated
	if err := s.commitProducts(ctx, next); err != nil {
		return models.Product{}, err
	}
	return updated.Clone(), nil
}

// DeleteProduct removes the entry entirely.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	next := make([]models.Product, 0, len(s.state.Products)-1)
	next = append(next, models.CloneProducts(s.state.Products[:idx])...)
	next = append(next, models.CloneProducts(s.state.Products[idx+1:])...)
	return s.commitProducts(ctx, next)
}

func (s *Service) SetShop(ctx context.Context, shop models.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistJSON(ctx, kvstore.KeyShop, shop); err != nil {
		return err
	}
	s.state.Shop = shop
	return nil
}

func (s *Service) SetUser(ctx context.Context, user models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistJSON(ctx, kvstore.KeyUser, user); err != nil {
		return err
	}
	s.state.User = user
	return nil
}

// SelectLanguage stores the code as a bare string, matching what the browser console writes.
func (s *Service) SelectLanguage(ctx context.Context, lang enums.Language) error {
	if !lang.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported language")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Put(ctx, kvstore.KeyLanguage, string(lang)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist language")
	}
	s.state.Language = lang
	s.state.LanguageSelected = true
	return nil
}

func (s *Service) indexOf(id string) int {
	for i, p := range s.state.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// commitProducts persists next and swaps it in; callers hold the write lock.
func (s *Service) commitProducts(ctx context.Context, next []models.Product) error {
	if err := s.persistJSON(ctx, kvstore.KeyProducts, next); err != nil {
		return err
	}
	s.state.Products = next
	return nil
}

func (s *Service) persistJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode "+key)
	}
	if err := s.store.Put(ctx, key, string(payload)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist "+key)
	}
	return nil
}
