package service

import (
	"context"

	"tradehits/internal/domain/models"
)

// SentimentProvider supplies the externally computed bull-run probability
// and sentiment score for a symbol. Consumed only by crossover confidence
// boosting; implementations must stay non-blocking beyond their own timeout.
type SentimentProvider interface {
	Scores(ctx context.Context, symbol string) (models.SymbolSentiment, error)
}
