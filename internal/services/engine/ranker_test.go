package engine

import (
	"testing"

	"tradehits/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func opp(symbol string, score *float64) models.Opportunity {
	return models.Opportunity{
		Symbol:           symbol,
		AssetType:        "stock",
		Recommendation:   models.RecBuy,
		OpportunityScore: score,
	}
}

func symbols(rows []models.Opportunity) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Symbol
	}
	return out
}

func TestRankTieBreaksBySymbolAscending(t *testing.T) {
	records := []models.Opportunity{
		opp("BBB", fp(70)),
		opp("AAA", fp(70)),
		opp("CCC", fp(90)),
	}
	res := Rank(records, RankParams{SortBy: "opportunity_score", Order: "desc"})
	got := symbols(res.Rows)
	want := []string{"CCC", "AAA", "BBB"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v (ties break by symbol ascending even on desc)", got, want)
		}
	}
}

func TestRankAscending(t *testing.T) {
	records := []models.Opportunity{
		opp("AAA", fp(90)),
		opp("BBB", fp(10)),
		opp("CCC", fp(50)),
	}
	res := Rank(records, RankParams{SortBy: "opportunity_score", Order: "asc"})
	got := symbols(res.Rows)
	want := []string{"BBB", "CCC", "AAA"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRankMissingNumericsCompareAsZero(t *testing.T) {
	records := []models.Opportunity{
		opp("AAA", nil),
		opp("BBB", fp(-5)),
		opp("CCC", fp(5)),
	}
	res := Rank(records, RankParams{SortBy: "opportunity_score", Order: "desc"})
	got := symbols(res.Rows)
	// nil sorts as 0: above -5, below 5
	want := []string{"CCC", "AAA", "BBB"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRankFiltersAreConjunction(t *testing.T) {
	records := []models.Opportunity{
		{Symbol: "AAA", AssetType: "stock", Recommendation: models.RecBuy, OpportunityScore: fp(70)},
		{Symbol: "BBB", AssetType: "crypto", Recommendation: models.RecBuy, OpportunityScore: fp(80)},
		{Symbol: "CCC", AssetType: "stock", Recommendation: models.RecSell, OpportunityScore: fp(90)},
	}
	res := Rank(records, RankParams{
		SortBy:         "opportunity_score",
		Order:          "desc",
		AssetType:      "stock",
		Recommendation: models.RecBuy,
	})
	if res.Total != 3 || res.Filtered != 1 {
		t.Fatalf("total/filtered = %d/%d, want 3/1", res.Total, res.Filtered)
	}
	if res.Rows[0].Symbol != "AAA" {
		t.Fatalf("row = %s, want AAA", res.Rows[0].Symbol)
	}
}

func TestRankEmptyFiltersMatchEverything(t *testing.T) {
	records := []models.Opportunity{
		opp("AAA", fp(70)),
		{Symbol: "BBB", AssetType: "crypto", Recommendation: models.RecSell, OpportunityScore: fp(80)},
	}
	res := Rank(records, RankParams{SortBy: "opportunity_score", Order: "desc"})
	if res.Filtered != 2 {
		t.Fatalf("filtered = %d, want 2", res.Filtered)
	}
}

func TestRankBySymbol(t *testing.T) {
	records := []models.Opportunity{
		opp("zeta", fp(1)),
		opp("Alpha", fp(2)),
		opp("beta", fp(3)),
	}
	res := Rank(records, RankParams{SortBy: "symbol", Order: "asc"})
	got := symbols(res.Rows)
	// locale collation, not byte order: "beta" sorts before "zeta" and after "Alpha"
	want := []string{"Alpha", "beta", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRankUnknownSortKeyFallsBack(t *testing.T) {
	records := []models.Opportunity{
		opp("AAA", fp(10)),
		opp("BBB", fp(90)),
	}
	res := Rank(records, RankParams{SortBy: "bogus", Order: "desc"})
	if res.Rows[0].Symbol != "BBB" {
		t.Fatalf("unknown sort key must fall back to opportunity_score, got %v", symbols(res.Rows))
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	records := []models.Opportunity{
		opp("BBB", fp(10)),
		opp("AAA", fp(90)),
	}
	Rank(records, RankParams{SortBy: "opportunity_score", Order: "desc"})
	if records[0].Symbol != "BBB" || records[1].Symbol != "AAA" {
		t.Fatalf("input slice reordered: %v", symbols(records))
	}
}
