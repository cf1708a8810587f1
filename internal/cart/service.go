// Package cart owns the session cart: the durable line-item list, its
// derived totals, and the shipping selection adjacent to it.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"shopmi-api/internal/domain"
	"shopmi-api/internal/repository"

	"go.uber.org/zap"
)

// ErrItemNotFound marks quantity updates addressed at absent line items.
// Removal of an absent item stays a no-op.
var ErrItemNotFound = errors.New("cart item not found")

// sessionState is the cart-adjacent state that is not persisted: the drawer
// open flag and the shipping selection with its request generation.
type sessionState struct {
	open       bool
	shipping   *domain.ShippingOption
	generation uint64
}

// Service applies cart mutations and persists the full item list on each one.
type Service struct {
	repo   repository.CartRepository
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewService(repo repository.CartRepository, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		logger:   logger,
		sessions: make(map[string]*sessionState),
	}
}

// load fetches the persisted items, treating a missing or malformed cart as
// empty.
func (s *Service) load(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	items, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return items, nil
}

func (s *Service) state(sessionID string) *sessionState {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	return st
}

// snapshot assembles the full cart payload. Totals are recomputed on every
// read, never cached.
func (s *Service) snapshot(sessionID string, items []domain.CartItem) domain.Cart {
	s.mu.Lock()
	st := s.state(sessionID)
	cart := domain.Cart{
		Items:              items,
		Open:               st.open,
		SelectedShipping:   st.shipping,
		ShippingGeneration: st.generation,
	}
	s.mu.Unlock()

	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	for _, item := range cart.Items {
		cart.TotalItems += item.Quantity
		cart.TotalPrice += item.Price * float64(item.Quantity)
	}
	return cart
}

// Get returns the current cart.
func (s *Service) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	items, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	return s.snapshot(sessionID, items), nil
}

// Add appends the item, or increments the quantity of the existing line with
// the same variant. First-added attributes win: price and image changes on
// the incoming item are ignored once a line exists. Marks the cart open.
func (s *Service) Add(ctx context.Context, sessionID string, item domain.CartItem) (domain.Cart, error) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.ID == "" {
		item.ID = item.VariantID
	}

	items, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	found := false
	for i := range items {
		if items[i].VariantID == item.VariantID {
			items[i].Quantity += item.Quantity
			found = true
			break
		}
	}
	if !found {
		items = append(items, item)
	}

	if err := s.repo.Save(ctx, sessionID, items); err != nil {
		return domain.Cart{}, fmt.Errorf("failed to persist cart: %w", err)
	}

	s.mu.Lock()
	s.state(sessionID).open = true
	s.mu.Unlock()

	s.logger.Debug("Cart item added",
		zap.String("session_id", sessionID),
		zap.String("variant_id", item.VariantID),
		zap.Int("quantity", item.Quantity),
	)
	return s.snapshot(sessionID, items), nil
}

// Remove deletes the line with the given id. Removing an absent id is a
// no-op.
func (s *Service) Remove(ctx context.Context, sessionID, id string) (domain.Cart, error) {
	items, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}

	if err := s.repo.Save(ctx, sessionID, kept); err != nil {
		return domain.Cart{}, fmt.Errorf("failed to persist cart: %w", err)
	}
	return s.snapshot(sessionID, kept), nil
}

// UpdateQuantity replaces a line's quantity. A quantity of zero or less is
// equivalent to removing the line.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, id string, quantity int) (domain.Cart, error) {
	if quantity <= 0 {
		return s.Remove(ctx, sessionID, id)
	}

	items, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	found := false
	for i := range items {
		if items[i].ID == id {
			items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return domain.Cart{}, ErrItemNotFound
	}

	if err := s.repo.Save(ctx, sessionID, items); err != nil {
		return domain.Cart{}, fmt.Errorf("failed to persist cart: %w", err)
	}
	return s.snapshot(sessionID, items), nil
}

// Clear empties the cart unconditionally.
func (s *Service) Clear(ctx context.Context, sessionID string) (domain.Cart, error) {
	if err := s.repo.Save(ctx, sessionID, []domain.CartItem{}); err != nil {
		return domain.Cart{}, fmt.Errorf("failed to persist cart: %w", err)
	}
	return s.snapshot(sessionID, nil), nil
}

// BeginQuote starts a new shipping calculation: the previous selection is
// cleared and a fresh generation is issued. Responses carrying an older
// generation are stale and must not be applied.
func (s *Service) BeginQuote(sessionID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(sessionID)
	st.shipping = nil
	st.generation++
	return st.generation
}

// SelectShipping applies a quoted option if the generation is still the most
// recent one for this session. Returns false for stale generations.
func (s *Service) SelectShipping(sessionID string, generation uint64, option domain.ShippingOption) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(sessionID)
	if generation != st.generation {
		s.logger.Debug("Ignoring stale shipping selection",
			zap.String("session_id", sessionID),
			zap.Uint64("generation", generation),
			zap.Uint64("current", st.generation),
		)
		return false
	}
	st.shipping = &option
	return true
}
