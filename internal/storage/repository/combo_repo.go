package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/combos"
)

// ErrComboNotFound is returned by GetCombo and DeleteCombo for an unknown id.
var ErrComboNotFound = errors.New("combo not found")

// ComboRepository is the SQLite-backed combo knowledge base.
type ComboRepository interface {
	UpsertCombo(ctx context.Context, combo *combos.Combo) error
	GetCombo(ctx context.Context, id string) (*combos.Combo, error)
	Search(ctx context.Context, query combos.Query) ([]combos.Combo, error)
	DeleteCombo(ctx context.Context, id string) error
	GetComboCount(ctx context.Context) (int, error)
}

type comboRepo struct {
	db *sqlx.DB
}

// NewComboRepository creates a new combo repository.
func NewComboRepository(db *sqlx.DB) ComboRepository {
	return &comboRepo{db: db}
}

type dbCombo struct {
	ID              string          `db:"id"`
	CardCount       int             `db:"card_count"`
	ComboTypes      string          `db:"combo_types"`
	Tags            string          `db:"tags"`
	Colors          string          `db:"colors"`
	TotalPriceUSD   sql.NullFloat64 `db:"total_price_usd"`
	Complexity      sql.NullString  `db:"complexity"`
	PopularityScore sql.NullFloat64 `db:"popularity_score"`
	Viability       sql.NullString  `db:"competitive_viability"`
	Weaknesses      string          `db:"weaknesses"`
	Description     sql.NullString  `db:"description"`
	LegalFormats    string          `db:"legal_formats"`
}

type dbComboCard struct {
	ComboID  string `db:"combo_id"`
	Position int    `db:"position"`
	CardID   string `db:"card_id"`
	CardName string `db:"card_name"`
}

const comboColumns = `id, card_count, combo_types, tags, colors, total_price_usd, complexity,
	popularity_score, competitive_viability, weaknesses, description, legal_formats`

// UpsertCombo replaces the combo and its member cards in one transaction.
func (r *comboRepo) UpsertCombo(ctx context.Context, combo *combos.Combo) error {
	row, err := comboToDB(combo)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO combos (`+comboColumns+`)
		VALUES (:id, :card_count, :combo_types, :tags, :colors, :total_price_usd, :complexity,
			:popularity_score, :competitive_viability, :weaknesses, :description, :legal_formats)
		ON CONFLICT(id) DO UPDATE SET
			card_count = excluded.card_count,
			combo_types = excluded.combo_types,
			tags = excluded.tags,
			colors = excluded.colors,
			total_price_usd = excluded.total_price_usd,
			complexity = excluded.complexity,
			popularity_score = excluded.popularity_score,
			competitive_viability = excluded.competitive_viability,
			weaknesses = excluded.weaknesses,
			description = excluded.description,
			legal_formats = excluded.legal_formats,
			updated_at = CURRENT_TIMESTAMP
	`, row)
	if err != nil {
		return fmt.Errorf("failed to upsert combo: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM combo_cards WHERE combo_id = ?`, combo.ID); err != nil {
		return fmt.Errorf("failed to clear combo cards: %w", err)
	}

	for _, member := range comboCardsToDB(combo) {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO combo_cards (combo_id, position, card_id, card_name)
			VALUES (:combo_id, :position, :card_id, :card_name)
		`, member); err != nil {
			return fmt.Errorf("failed to insert combo card: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit combo: %w", err)
	}
	return nil
}

// GetCombo returns ErrComboNotFound for an unknown id.
func (r *comboRepo) GetCombo(ctx context.Context, id string) (*combos.Combo, error) {
	var row dbCombo
	err := r.db.GetContext(ctx, &row, `SELECT `+comboColumns+` FROM combos WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrComboNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get combo: %w", err)
	}

	list, err := r.hydrate(ctx, []dbCombo{row})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

// Search narrows by member card ids in SQL and applies the remaining filters
// to the decoded combos:
//   - tags: any combo tag contains any requested tag, case-insensitively
//   - legal_formats: the combo lists every requested format, or lists none
//   - max_price: the total price is at most the limit, or unknown
//   - colors: the combo's colors are a subset of the requested colors
//   - combo_types: the combo has at least one requested type
func (r *comboRepo) Search(ctx context.Context, query combos.Query) ([]combos.Combo, error) {
	rows, err := r.selectByCards(ctx, query.CardIDs)
	if err != nil {
		return nil, err
	}

	list, err := r.hydrate(ctx, rows)
	if err != nil {
		return nil, err
	}

	out := make([]combos.Combo, 0, len(list))
	for _, c := range list {
		if !matches(&c, &query) {
			continue
		}
		out = append(out, c)
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	return out, nil
}

func (r *comboRepo) selectByCards(ctx context.Context, cardIDs []string) ([]dbCombo, error) {
	ids := uniqueNonEmpty(cardIDs)

	var rows []dbCombo
	if len(ids) == 0 {
		if err := r.db.SelectContext(ctx, &rows, `SELECT `+comboColumns+` FROM combos ORDER BY id`); err != nil {
			return nil, fmt.Errorf("failed to list combos: %w", err)
		}
		return rows, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+comboColumns+` FROM combos
		WHERE id IN (
			SELECT combo_id FROM combo_cards
			WHERE card_id IN (?)
			GROUP BY combo_id
			HAVING COUNT(DISTINCT card_id) = ?
		)
		ORDER BY id
	`, ids, len(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to build combo query: %w", err)
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to search combos: %w", err)
	}
	return rows, nil
}

// hydrate decodes rows and attaches member cards in position order.
func (r *comboRepo) hydrate(ctx context.Context, rows []dbCombo) ([]combos.Combo, error) {
	if len(rows) == 0 {
		return []combos.Combo{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	query, args, err := sqlx.In(`
		SELECT combo_id, position, card_id, card_name FROM combo_cards
		WHERE combo_id IN (?)
		ORDER BY combo_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build combo card query: %w", err)
	}
	var members []dbComboCard
	if err := r.db.SelectContext(ctx, &members, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load combo cards: %w", err)
	}

	byCombo := make(map[string][]dbComboCard, len(rows))
	for _, m := range members {
		byCombo[m.ComboID] = append(byCombo[m.ComboID], m)
	}

	out := make([]combos.Combo, 0, len(rows))
	for _, row := range rows {
		c, err := dbToCombo(row, byCombo[row.ID])
		if err != nil {
			return nil, fmt.Errorf("failed to decode combo %s: %w", row.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// DeleteCombo removes a combo and its member cards.
func (r *comboRepo) DeleteCombo(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM combo_cards WHERE combo_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete combo cards: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM combos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete combo: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrComboNotFound, id)
	}
	return tx.Commit()
}

// GetComboCount returns the number of stored combos.
func (r *comboRepo) GetComboCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM combos`); err != nil {
		return 0, fmt.Errorf("failed to count combos: %w", err)
	}
	return count, nil
}

func matches(c *combos.Combo, q *combos.Query) bool {
	if len(q.Tags) > 0 && !anyTagContains(c.Tags, q.Tags) {
		return false
	}
	if len(q.LegalFormats) > 0 && len(c.LegalFormats) > 0 && !containsAll(c.LegalFormats, q.LegalFormats) {
		return false
	}
	if q.MaxPrice != nil && c.TotalPriceUSD != nil && *c.TotalPriceUSD > *q.MaxPrice {
		return false
	}
	if len(q.Colors) > 0 && !containsAll(cards.NormalizeColors(q.Colors), cards.NormalizeColors(c.Colors)) {
		return false
	}
	if len(q.ComboTypes) > 0 && !containsAny(c.ComboTypes, q.ComboTypes) {
		return false
	}
	return true
}

func anyTagContains(tags, wanted []string) bool {
	for _, tag := range tags {
		tag = strings.ToLower(tag)
		for _, w := range wanted {
			if strings.Contains(tag, strings.ToLower(strings.TrimSpace(w))) {
				return true
			}
		}
	}
	return false
}

// containsAll reports whether every element of subset appears in set, ignoring case.
func containsAll(set, subset []string) bool {
	have := make(map[string]bool, len(set))
	for _, s := range set {
		have[strings.ToLower(s)] = true
	}
	for _, s := range subset {
		if !have[strings.ToLower(s)] {
			return false
		}
	}
	return true
}

func containsAny(set, wanted []string) bool {
	have := make(map[string]bool, len(set))
	for _, s := range set {
		have[strings.ToLower(s)] = true
	}
	for _, w := range wanted {
		if have[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func comboToDB(c *combos.Combo) (*dbCombo, error) {
	encode := func(field string, v []string) (string, error) {
		data, err := json.Marshal(nonNil(v))
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s: %w", field, err)
		}
		return string(data), nil
	}

	row := &dbCombo{
		ID:              c.ID,
		CardCount:       c.Size(),
		TotalPriceUSD:   nullFloat(c.TotalPriceUSD),
		Complexity:      nullString(string(c.Complexity)),
		PopularityScore: nullFloat(c.PopularityScore),
		Viability:       nullString(string(c.Viability)),
		Description:     nullString(c.Description),
	}

	var err error
	if row.ComboTypes, err = encode("combo types", c.ComboTypes); err != nil {
		return nil, err
	}
	if row.Tags, err = encode("tags", c.Tags); err != nil {
		return nil, err
	}
	if row.Colors, err = encode("colors", c.Colors); err != nil {
		return nil, err
	}
	if row.Weaknesses, err = encode("weaknesses", c.Weaknesses); err != nil {
		return nil, err
	}
	if row.LegalFormats, err = encode("legal formats", c.LegalFormats); err != nil {
		return nil, err
	}
	return row, nil
}

func comboCardsToDB(c *combos.Combo) []dbComboCard {
	n := len(c.CardNames)
	if len(c.CardIDs) > n {
		n = len(c.CardIDs)
	}
	out := make([]dbComboCard, n)
	for i := range out {
		out[i] = dbComboCard{ComboID: c.ID, Position: i}
		if i < len(c.CardIDs) {
			out[i].CardID = c.CardIDs[i]
		}
		if i < len(c.CardNames) {
			out[i].CardName = c.CardNames[i]
		}
	}
	return out
}

func dbToCombo(row dbCombo, members []dbComboCard) (combos.Combo, error) {
	c := combos.Combo{
		ID:          row.ID,
		CardIDs:     make([]string, 0, len(members)),
		CardNames:   make([]string, 0, len(members)),
		CardCount:   row.CardCount,
		Complexity:  combos.Complexity(row.Complexity.String),
		Viability:   combos.Viability(row.Viability.String),
		Description: row.Description.String,
	}
	if row.TotalPriceUSD.Valid {
		v := row.TotalPriceUSD.Float64
		c.TotalPriceUSD = &v
	}
	if row.PopularityScore.Valid {
		v := row.PopularityScore.Float64
		c.PopularityScore = &v
	}

	for _, m := range members {
		c.CardIDs = append(c.CardIDs, m.CardID)
		c.CardNames = append(c.CardNames, m.CardName)
	}

	for _, field := range []struct {
		raw string
		dst *[]string
	}{
		{row.ComboTypes, &c.ComboTypes},
		{row.Tags, &c.Tags},
		{row.Colors, &c.Colors},
		{row.Weaknesses, &c.Weaknesses},
		{row.LegalFormats, &c.LegalFormats},
	} {
		if err := json.Unmarshal([]byte(field.raw), field.dst); err != nil {
			return combos.Combo{}, err
		}
	}
	return c, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{Valid: true, String: s}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Valid: true, Float64: *v}
}
