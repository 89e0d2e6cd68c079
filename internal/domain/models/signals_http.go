package models

// Requests for engine HTTP endpoints. Defined in domain for consistency and reuse.

type ScoreRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1d 1h 5m"`
}

type FusedRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type CrossoversRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type OpportunitiesRequest struct {
	SortBy         string `query:"sort_by" json:"sort_by" default:"opportunity_score" validate:"oneof=opportunity_score strength growth_score close volume symbol recommendation asset_type"`
	Order          string `query:"order" json:"order" default:"desc" validate:"oneof=asc desc"`
	AssetType      string `query:"asset_type" json:"asset_type" validate:"omitempty,max=32"`
	Recommendation string `query:"recommendation" json:"recommendation" validate:"omitempty,oneof=STRONG_BUY BUY HOLD AVOID SELL STRONG_SELL"`
}

type SnapshotsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from" validate:"omitempty"`
	To     string `query:"to" json:"to" validate:"omitempty"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1d 1h 5m"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}
