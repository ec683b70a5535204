package recommendations

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfileConstraintsOverrideMetadata(t *testing.T) {
	deck := &Deck{
		Format:   "Commander",
		Cards:    []string{"Sol Ring"},
		Metadata: DeckMetadata{Theme: "tokens", Budget: "100", Power: "2", Colors: []string{"w", "g", "W"}},
	}

	p := NewProfile(deck, Constraints{Theme: "lifegain", Budget: "$25"}, nil)

	assert.Equal(t, "lifegain", p.Theme)
	assert.Equal(t, "commander", p.Format)
	require.NotNil(t, p.Budget)
	assert.Equal(t, 25.0, *p.Budget)
	require.NotNil(t, p.TargetPower)
	assert.Equal(t, 2.0, *p.TargetPower)
	assert.Equal(t, []string{"W", "G"}, p.Colors)
}

func TestNewProfileSkipsInvalidNumbers(t *testing.T) {
	logger, buf := bufferLogger()

	p := NewProfile(&Deck{}, Constraints{Budget: "cheap", TargetPower: "high"}, logger)

	assert.Nil(t, p.Budget)
	assert.Nil(t, p.TargetPower)
	assert.Contains(t, buf.String(), "ignoring invalid constraint")
	assert.Contains(t, buf.String(), "field=budget")
	assert.Contains(t, buf.String(), "field=target_power")
}

func TestProfileBlocks(t *testing.T) {
	deck := &Deck{
		Cards:     []string{"Sol Ring"},
		Sections:  map[string][]string{"sideboard": {"Swords to Plowshares"}},
		Commander: "Atraxa, Praetors' Voice",
	}
	p := NewProfile(deck, Constraints{Banned: []string{"Mana Crypt"}, Excluded: []string{" Cyclonic Rift "}}, nil)

	for _, name := range []string{"sol ring", "Swords to Plowshares", "ATRAXA, PRAETORS' VOICE", "Mana Crypt", "cyclonic rift"} {
		assert.True(t, p.Blocks(name), name)
	}
	assert.False(t, p.Blocks("Counterspell"))
}

func TestRawNumberUnmarshal(t *testing.T) {
	var c Constraints
	require.NoError(t, json.Unmarshal([]byte(`{"budget": 50, "target_power": "3"}`), &c))

	budget, ok, err := c.Budget.Float()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 50.0, budget)

	power, ok, err := c.TargetPower.Float()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3.0, power)

	_, ok, err = RawNumber("").Float()
	assert.NoError(t, err)
	assert.False(t, ok)
}
