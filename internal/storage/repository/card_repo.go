package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
)

// CardRepository persists card metadata fetched from Scryfall.
type CardRepository interface {
	UpsertCard(ctx context.Context, card *cards.Card) error
	GetCardByID(ctx context.Context, id string) (*cards.Card, error)
	GetCardByName(ctx context.Context, name string) (*cards.Card, error)
	ListCards(ctx context.Context) ([]*cards.Card, error)
	GetCardCount(ctx context.Context) (int, error)
}

type cardRepo struct {
	db *sql.DB
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db *sql.DB) CardRepository {
	return &cardRepo{db: db}
}

const cardColumns = `id, oracle_id, name, type_line, mana_cost, cmc, rarity, colors, color_identity,
	power, toughness, oracle_text, legalities, price_usd, last_updated`

// UpsertCard inserts or replaces a card by id.
func (r *cardRepo) UpsertCard(ctx context.Context, card *cards.Card) error {
	colors, err := json.Marshal(nonNil(card.Colors))
	if err != nil {
		return fmt.Errorf("failed to marshal colors: %w", err)
	}
	identity, err := json.Marshal(nonNil(card.ColorIdentity))
	if err != nil {
		return fmt.Errorf("failed to marshal color identity: %w", err)
	}
	legalities, err := json.Marshal(card.Legalities)
	if err != nil {
		return fmt.Errorf("failed to marshal legalities: %w", err)
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			oracle_id = excluded.oracle_id,
			name = excluded.name,
			type_line = excluded.type_line,
			mana_cost = excluded.mana_cost,
			cmc = excluded.cmc,
			rarity = excluded.rarity,
			colors = excluded.colors,
			color_identity = excluded.color_identity,
			power = excluded.power,
			toughness = excluded.toughness,
			oracle_text = excluded.oracle_text,
			legalities = excluded.legalities,
			price_usd = excluded.price_usd,
			last_updated = CURRENT_TIMESTAMP
	`

	_, err = r.db.ExecContext(ctx, query,
		card.ID, card.OracleID, card.Name, card.TypeLine, card.ManaCost, card.CMC, card.Rarity,
		string(colors), string(identity), card.Power, card.Toughness, card.OracleText,
		string(legalities), card.PriceUSD,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card: %w", err)
	}
	return nil
}

// GetCardByID returns nil when the card is not stored.
func (r *cardRepo) GetCardByID(ctx context.Context, id string) (*cards.Card, error) {
	card, err := scanCard(r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	return card, nil
}

// GetCardByName matches case-insensitively and returns nil when absent.
func (r *cardRepo) GetCardByName(ctx context.Context, name string) (*cards.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE name = ? COLLATE NOCASE ORDER BY last_updated DESC LIMIT 1`
	card, err := scanCard(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card %q: %w", name, err)
	}
	return card, nil
}

// ListCards returns every stored card ordered by name.
func (r *cardRepo) ListCards(ctx context.Context) ([]*cards.Card, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*cards.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

// GetCardCount returns the number of stored cards.
func (r *cardRepo) GetCardCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return count, nil
}

func scanCard(row rowScanner) (*cards.Card, error) {
	var (
		c                                                  cards.Card
		oracleID, manaCost, rarity, power, toughness, text sql.NullString
		colors, identity, legalities                       string
		price                                              sql.NullFloat64
	)

	if err := row.Scan(
		&c.ID, &oracleID, &c.Name, &c.TypeLine, &manaCost, &c.CMC, &rarity,
		&colors, &identity, &power, &toughness, &text, &legalities, &price, &c.LastUpdated,
	); err != nil {
		return nil, err
	}

	c.OracleID = oracleID.String
	c.ManaCost = manaCost.String
	c.Rarity = rarity.String
	c.Power = power.String
	c.Toughness = toughness.String
	c.OracleText = text.String
	if price.Valid {
		v := price.Float64
		c.PriceUSD = &v
	}

	if err := json.Unmarshal([]byte(colors), &c.Colors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal colors: %w", err)
	}
	if err := json.Unmarshal([]byte(identity), &c.ColorIdentity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal color identity: %w", err)
	}
	if err := json.Unmarshal([]byte(legalities), &c.Legalities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal legalities: %w", err)
	}
	return &c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
