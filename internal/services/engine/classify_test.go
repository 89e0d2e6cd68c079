package engine

import (
	"testing"

	"tradehits/internal/domain/models"
)

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		strength float64
		want     models.Recommendation
	}{
		{100, models.RecStrongBuy},
		{80, models.RecStrongBuy},
		{79.9, models.RecBuy},
		{60, models.RecBuy},
		{59.9, models.RecHold},
		{40, models.RecHold},
		{39.9, models.RecSell},
		{20, models.RecSell},
		{19.9, models.RecStrongSell},
		{0, models.RecStrongSell},
	}
	for _, c := range cases {
		if got := Classify(c.strength); got != c.want {
			t.Fatalf("Classify(%v) = %s, want %s", c.strength, got, c.want)
		}
	}
}

func TestClassifyFiveMinThresholds(t *testing.T) {
	cases := []struct {
		strength float64
		want     models.Recommendation
	}{
		{75, models.RecStrongBuy},
		{74.9, models.RecBuy},
		{55, models.RecBuy},
		{54.9, models.RecHold},
		{45, models.RecHold},
		{44.9, models.RecSell},
		{25, models.RecSell},
		{24.9, models.RecStrongSell},
	}
	for _, c := range cases {
		if got := ClassifyFiveMin(c.strength); got != c.want {
			t.Fatalf("ClassifyFiveMin(%v) = %s, want %s", c.strength, got, c.want)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	prev := Classify(0)
	for s := 0.5; s <= 100; s += 0.5 {
		cur := Classify(s)
		if cur.Rank() < prev.Rank() {
			t.Fatalf("classification regressed at strength %v: %s after %s", s, cur, prev)
		}
		prev = cur
	}
}

func TestClampOutOfRange(t *testing.T) {
	if got := Clamp(105); got != 100 {
		t.Fatalf("Clamp(105) = %v, want 100", got)
	}
	if got := Clamp(-3); got != 0 {
		t.Fatalf("Clamp(-3) = %v, want 0", got)
	}
	if got := Classify(140); got != models.RecStrongBuy {
		t.Fatalf("Classify(140) = %s, want STRONG_BUY", got)
	}
	if got := Classify(-20); got != models.RecStrongSell {
		t.Fatalf("Classify(-20) = %s, want STRONG_SELL", got)
	}
}
