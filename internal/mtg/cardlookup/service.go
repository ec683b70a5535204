// Package cardlookup resolves cards from the local store, falling back to
// Scryfall for cards that are missing or stale.
package cardlookup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards/scryfall"
)

// Store is the local card cache.
type Store interface {
	GetCardByID(ctx context.Context, id string) (*cards.Card, error)
	GetCardByName(ctx context.Context, name string) (*cards.Card, error)
	UpsertCard(ctx context.Context, card *cards.Card) error
}

// Fetcher is the remote card source.
type Fetcher interface {
	GetCard(ctx context.Context, id string) (*scryfall.Card, error)
	GetCardByName(ctx context.Context, name string) (*scryfall.Card, error)
}

// Service provides unified card lookup with caching.
// It integrates the storage layer and Scryfall API client.
type Service struct {
	store          Store
	fetcher        Fetcher
	staleThreshold time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// ServiceOptions configures the card lookup service.
type ServiceOptions struct {
	// StaleThreshold is how old cached data can be before fetching from Scryfall.
	// Default: 7 days
	StaleThreshold time.Duration

	Logger *slog.Logger
}

// DefaultServiceOptions returns sensible defaults.
func DefaultServiceOptions() ServiceOptions {
	return ServiceOptions{
		StaleThreshold: 7 * 24 * time.Hour, // 7 days
	}
}

// NewService creates a new card lookup service. A nil fetcher keeps lookups
// local.
func NewService(store Store, fetcher Fetcher, options ServiceOptions) *Service {
	if options.StaleThreshold == 0 {
		options.StaleThreshold = DefaultServiceOptions().StaleThreshold
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Service{
		store:          store,
		fetcher:        fetcher,
		staleThreshold: options.StaleThreshold,
		logger:         options.Logger,
		now:            time.Now,
	}
}

// GetCardByID returns the stored card. When fetchIfMissing is set, missing or
// stale cards are fetched from Scryfall and saved. An unknown card yields
// (nil, nil).
func (s *Service) GetCardByID(ctx context.Context, id string, fetchIfMissing bool) (*cards.Card, error) {
	card, err := s.store.GetCardByID(ctx, id)
	if err != nil {
		s.logger.Warn("card store lookup failed", slog.String("card_id", id), slog.Any("error", err))
	}
	if card != nil && (s.fresh(card) || !fetchIfMissing) {
		return card, nil
	}
	if !fetchIfMissing || s.fetcher == nil {
		return card, nil
	}

	remote, err := s.fetcher.GetCard(ctx, id)
	return s.settle(ctx, card, remote, err)
}

// GetCardByName resolves a card by exact name, fetching it from Scryfall when
// it is missing or stale locally.
func (s *Service) GetCardByName(ctx context.Context, name string) (*cards.Card, error) {
	card, err := s.store.GetCardByName(ctx, name)
	if err != nil {
		s.logger.Warn("card store lookup failed", slog.String("card", name), slog.Any("error", err))
	}
	if card != nil && s.fresh(card) {
		return card, nil
	}
	if s.fetcher == nil {
		return card, nil
	}

	remote, err := s.fetcher.GetCardByName(ctx, name)
	return s.settle(ctx, card, remote, err)
}

func (s *Service) fresh(card *cards.Card) bool {
	return s.now().Sub(card.LastUpdated) < s.staleThreshold
}

// settle saves a fetched card, or falls back to the cached copy when the fetch
// failed.
func (s *Service) settle(ctx context.Context, cached *cards.Card, remote *scryfall.Card, err error) (*cards.Card, error) {
	if err != nil {
		if cached != nil {
			s.logger.Debug("using stale card after fetch failure", slog.String("card", cached.Name), slog.Any("error", err))
			return cached, nil
		}
		if scryfall.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch card from Scryfall: %w", err)
	}

	card := remote.ToCard()
	card.LastUpdated = s.now()
	// The fetched card is returned even if caching it fails.
	if err := s.store.UpsertCard(ctx, card); err != nil {
		s.logger.Warn("failed to cache card", slog.String("card", card.Name), slog.Any("error", err))
	}
	return card, nil
}
