package engine

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tradehits/internal/domain/models"
)

// RankParams selects the sort key/direction and the exact-match filters.
// Filters are a conjunction; empty values match everything.
type RankParams struct {
	SortBy         string
	Order          string // "asc" or "desc"
	AssetType      string
	Recommendation models.Recommendation
}

// RankResult is the ordered universe plus its counts for pagination done by
// the presentation layer.
type RankResult struct {
	Rows     []models.Opportunity `json:"rows"`
	Total    int                  `json:"total"`
	Filtered int                  `json:"filtered"`
}

// Rank filters and orders opportunity records for presentation. The sort is
// stable and ties on the primary key always break by symbol ascending, so
// the output is deterministic across runs. Missing numeric values compare
// as zero; string fields compare in locale order.
func Rank(records []models.Opportunity, p RankParams) RankResult {
	rows := make([]models.Opportunity, 0, len(records))
	for _, r := range records {
		if p.AssetType != "" && r.AssetType != p.AssetType {
			continue
		}
		if p.Recommendation != "" && r.Recommendation != p.Recommendation {
			continue
		}
		rows = append(rows, r)
	}

	col := collate.New(language.English)
	desc := p.Order == "desc"
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareBy(rows[i], rows[j], p.SortBy, col)
		if c == 0 {
			return rows[i].Symbol < rows[j].Symbol
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	return RankResult{Rows: rows, Total: len(records), Filtered: len(rows)}
}

func compareBy(a, b models.Opportunity, field string, col *collate.Collator) int {
	switch field {
	case "symbol":
		return col.CompareString(a.Symbol, b.Symbol)
	case "recommendation":
		return col.CompareString(string(a.Recommendation), string(b.Recommendation))
	case "asset_type":
		return col.CompareString(a.AssetType, b.AssetType)
	default:
		av, bv := numericField(a, field), numericField(b, field)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
}

func numericField(o models.Opportunity, field string) float64 {
	var v *float64
	switch field {
	case "strength":
		v = o.Strength
	case "growth_score":
		v = o.GrowthScore
	case "close":
		v = o.Close
	case "volume":
		v = o.Volume
	default: // opportunity_score
		v = o.OpportunityScore
	}
	if v == nil {
		return 0
	}
	return *v
}
