package scryfall

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
)

// Card is the subset of a Scryfall card object the advisor reads.
type Card struct {
	ID            string            `json:"id"`
	OracleID      string            `json:"oracle_id"`
	Name          string            `json:"name"`
	ManaCost      string            `json:"mana_cost,omitempty"`
	CMC           float64           `json:"cmc"`
	TypeLine      string            `json:"type_line"`
	OracleText    string            `json:"oracle_text,omitempty"`
	Colors        []string          `json:"colors,omitempty"`
	ColorIdentity []string          `json:"color_identity"`
	Power         string            `json:"power,omitempty"`
	Toughness     string            `json:"toughness,omitempty"`
	Rarity        string            `json:"rarity"`
	CardFaces     []CardFace        `json:"card_faces,omitempty"`
	Legalities    map[string]string `json:"legalities"`
	Prices        Prices            `json:"prices"`
}

// CardFace represents one face of a multi-faced card.
type CardFace struct {
	Name       string   `json:"name"`
	ManaCost   string   `json:"mana_cost"`
	TypeLine   string   `json:"type_line"`
	OracleText string   `json:"oracle_text"`
	Colors     []string `json:"colors,omitempty"`
	Power      string   `json:"power,omitempty"`
	Toughness  string   `json:"toughness,omitempty"`
}

// Prices represents the prices of a card. Scryfall sends decimal strings or null.
type Prices struct {
	USD     *string `json:"usd"`
	USDFoil *string `json:"usd_foil"`
	EUR     *string `json:"eur"`
	Tix     *string `json:"tix"`
}

// ToCard converts the API object into the advisor's card model. Multi-faced
// cards get their face texts joined; the non-foil USD price is preferred.
func (c *Card) ToCard() *cards.Card {
	out := &cards.Card{
		ID:            c.ID,
		OracleID:      c.OracleID,
		Name:          c.Name,
		TypeLine:      c.TypeLine,
		ManaCost:      c.ManaCost,
		CMC:           c.CMC,
		Rarity:        c.Rarity,
		Colors:        c.Colors,
		ColorIdentity: c.ColorIdentity,
		Power:         c.Power,
		Toughness:     c.Toughness,
		OracleText:    c.OracleText,
		Legalities:    c.Legalities,
		PriceUSD:      cards.ParsePrice(c.Prices.USD),
	}
	if out.PriceUSD == nil {
		out.PriceUSD = cards.ParsePrice(c.Prices.USDFoil)
	}

	if len(c.CardFaces) > 0 {
		texts := make([]string, 0, len(c.CardFaces))
		for _, face := range c.CardFaces {
			if face.OracleText != "" {
				texts = append(texts, face.OracleText)
			}
		}
		if out.OracleText == "" {
			out.OracleText = strings.Join(texts, "\n//\n")
		}
		if out.Power == "" {
			out.Power = c.CardFaces[0].Power
			out.Toughness = c.CardFaces[0].Toughness
		}
		if len(out.Colors) == 0 {
			out.Colors = c.CardFaces[0].Colors
		}
	}
	if out.ColorIdentity == nil {
		out.ColorIdentity = []string{}
	}
	return out
}

// APIError represents an error response from the Scryfall API.
type APIError struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Details string `json:"details"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Details)
	}
	return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Code)
}

// NotFoundError represents a 404 error from the API.
type NotFoundError struct {
	URL string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
