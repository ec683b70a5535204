package combos

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
)

// Writer persists combos.
type Writer interface {
	UpsertCombo(ctx context.Context, combo *Combo) error
}

// NameResolver finds a card by name. A nil card with a nil error means the
// card is unknown.
type NameResolver interface {
	GetCardByName(ctx context.Context, name string) (*cards.Card, error)
}

// comboNamespace seeds the ids derived for combos that arrive without one.
var comboNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ramonehamilton/mtg-deck-advisor/combos"))

// comboFile is the on-disk layout accepted by LoadFile.
type comboFile struct {
	Combos []Combo `json:"combos" yaml:"combos"`
}

// LoadFile reads combos from a JSON or YAML file. The file may contain either a
// top-level list or an object with a "combos" list.
func LoadFile(path string) ([]Combo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read combo file: %w", err)
	}

	var list []Combo
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		list, err = decodeJSON(data)
	case ".yaml", ".yml":
		list, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported combo file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse combo file %s: %w", path, err)
	}

	for i := range list {
		if err := Normalize(&list[i]); err != nil {
			return nil, fmt.Errorf("combo %d in %s: %w", i, path, err)
		}
	}
	return list, nil
}

func decodeJSON(data []byte) ([]Combo, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []Combo
		err := json.Unmarshal(data, &list)
		return list, err
	}
	var f comboFile
	err := json.Unmarshal(data, &f)
	return f.Combos, err
}

func decodeYAML(data []byte) ([]Combo, error) {
	var list []Combo
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var f comboFile
	err := yaml.Unmarshal(data, &f)
	return f.Combos, err
}

// Normalize fills derived fields and validates a combo before storage.
func Normalize(c *Combo) error {
	if len(c.CardNames) < 2 && len(c.CardIDs) < 2 {
		return fmt.Errorf("combo needs at least two cards")
	}
	if c.ID == "" {
		c.ID = DeriveID(c)
	}
	if c.CardCount == 0 {
		c.CardCount = c.Size()
	}
	c.Colors = cards.NormalizeColors(c.Colors)
	if c.Complexity != "" {
		c.Complexity = Complexity(strings.ToLower(string(c.Complexity)))
	}
	if c.Viability != "" {
		c.Viability = Viability(strings.ToLower(string(c.Viability)))
	}
	return nil
}

// DeriveID returns a stable id for a combo from its member cards, so
// re-importing the same file updates rows instead of duplicating them. Names
// are preferred over ids; order and case do not matter.
func DeriveID(c *Combo) string {
	members := c.CardNames
	if len(members) == 0 {
		members = c.CardIDs
	}
	keys := make([]string, 0, len(members))
	for _, m := range members {
		if k := cards.NormalizeName(m); k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return uuid.NewSHA1(comboNamespace, []byte(strings.Join(keys, "|"))).String()
}

// Import stores every combo, stopping at the first failure.
func Import(ctx context.Context, w Writer, list []Combo) (int, error) {
	imported := 0
	for i := range list {
		if err := w.UpsertCombo(ctx, &list[i]); err != nil {
			return imported, fmt.Errorf("store combo %s: %w", list[i].ID, err)
		}
		imported++
	}
	return imported, nil
}

// ResolveCardIDs fills CardIDs from CardNames when a file lists names only.
// Combos whose ids are already complete are left untouched. It returns the
// names that could not be resolved.
func ResolveCardIDs(ctx context.Context, r NameResolver, c *Combo) ([]string, error) {
	if len(c.CardIDs) >= len(c.CardNames) {
		return nil, nil
	}

	ids := make([]string, len(c.CardNames))
	copy(ids, c.CardIDs)

	var missing []string
	for i, name := range c.CardNames {
		if ids[i] != "" {
			continue
		}
		card, err := r.GetCardByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", name, err)
		}
		if card == nil {
			missing = append(missing, name)
			continue
		}
		ids[i] = card.ID
	}
	c.CardIDs = ids
	return missing, nil
}
