package recommendations

import (
	"math"
	"sort"
	"strings"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/cards"
	"github.com/ramonehamilton/mtg-deck-advisor/internal/mtg/combos"
)

// Combo scoring weights.
const (
	themeMatchBonus        = 10.0
	commanderSynergyBonus  = 15.0
	colorOverlapWeight     = 5.0
	budgetFitBonus         = 10.0
	budgetOverrunDivisor   = 10.0
	powerFitBonus          = 8.0
	powerFitTolerance      = 1.0
	lowComplexityBonus     = 5.0
	highComplexityPenalty  = -3.0
	twoCardComboBonus      = 8.0
	threeCardComboBonus    = 4.0
	weaknessPenalty        = 2.0
	infiniteComboBonus     = 12.0
	popularityWeight       = 5.0
	defaultFocusedComboCap = 3
)

// ComboRanker scores combos against a resolved deck profile. Scores are only
// used for ordering and are never stored on the combo.
type ComboRanker struct{}

// NewComboRanker creates a ranker.
func NewComboRanker() *ComboRanker {
	return &ComboRanker{}
}

// Score sums the weighted factors for one combo.
func (r *ComboRanker) Score(c *combos.Combo, p *Profile) float64 {
	score := 0.0

	if p.Theme != "" && hasTagContaining(c.Tags, p.Theme) {
		score += themeMatchBonus
	}

	if p.Commander != "" && c.HasCard(p.Commander) {
		score += commanderSynergyBonus
	}

	score += colorOverlapWeight * float64(cards.SharedColors(p.Colors, c.Colors))

	if p.Budget != nil && c.TotalPriceUSD != nil {
		if *c.TotalPriceUSD <= *p.Budget {
			score += budgetFitBonus
		} else {
			score -= (*c.TotalPriceUSD - *p.Budget) / budgetOverrunDivisor
		}
	}

	if p.TargetPower != nil {
		if tier := c.Viability.Tier(); tier > 0 && math.Abs(float64(tier)-*p.TargetPower) <= powerFitTolerance {
			score += powerFitBonus
		}
	}

	switch combos.Complexity(strings.ToLower(string(c.Complexity))) {
	case combos.ComplexityLow:
		score += lowComplexityBonus
	case combos.ComplexityHigh:
		score += highComplexityPenalty
	}

	switch size := c.Size(); {
	case size <= 2:
		score += twoCardComboBonus
	case size == 3:
		score += threeCardComboBonus
	default:
		score -= float64(size)
	}

	score -= weaknessPenalty * float64(len(c.Weaknesses))

	if c.IsInfinite() {
		score += infiniteComboBonus
	}

	if c.PopularityScore != nil {
		score += popularityWeight * *c.PopularityScore
	}

	return score
}

// Rank scores every combo and orders the results by the sort key. Ties keep
// discovery order.
func (r *ComboRanker) Rank(list []combos.Combo, p *Profile, sortBy SortKey) []RankedCombo {
	ranked := make([]RankedCombo, len(list))
	for i := range list {
		ranked[i] = RankedCombo{Combo: list[i], Score: r.Score(&list[i], p)}
	}

	sort.SliceStable(ranked, comboLess(ranked, sortBy))
	return ranked
}

func comboLess(ranked []RankedCombo, sortBy SortKey) func(i, j int) bool {
	switch sortBy {
	case SortByPrice:
		return func(i, j int) bool {
			return priceOrInf(&ranked[i].Combo) < priceOrInf(&ranked[j].Combo)
		}
	case SortByPopularity:
		return func(i, j int) bool {
			return popularityOrZero(&ranked[i].Combo) > popularityOrZero(&ranked[j].Combo)
		}
	case SortByComplexity:
		return func(i, j int) bool {
			return complexityRank(ranked[i].Combo.Complexity) < complexityRank(ranked[j].Combo.Complexity)
		}
	default:
		return func(i, j int) bool {
			return ranked[i].Score > ranked[j].Score
		}
	}
}

// Truncate applies the presentation mode. Focused mode keeps at most limit
// combos (the default cap when limit is not positive); broad keeps all.
func Truncate(ranked []RankedCombo, mode ComboMode, limit int) []RankedCombo {
	if mode == ComboModeBroad {
		return ranked
	}
	if limit <= 0 {
		limit = defaultFocusedComboCap
	}
	if len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

func hasTagContaining(tags []string, theme string) bool {
	needle := strings.ToLower(strings.TrimSpace(theme))
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func priceOrInf(c *combos.Combo) float64 {
	if c.TotalPriceUSD == nil {
		return math.Inf(1)
	}
	return *c.TotalPriceUSD
}

func popularityOrZero(c *combos.Combo) float64 {
	if c.PopularityScore == nil {
		return 0
	}
	return *c.PopularityScore
}

func complexityRank(c combos.Complexity) int {
	switch combos.Complexity(strings.ToLower(string(c))) {
	case combos.ComplexityLow:
		return 0
	case combos.ComplexityMedium:
		return 1
	case combos.ComplexityHigh:
		return 2
	default:
		return 3
	}
}
