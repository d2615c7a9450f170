package models

// Requests for the pairs HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Asset1 string `query:"asset1" json:"asset1" validate:"required"`
	Asset2 string `query:"asset2" json:"asset2" validate:"required"`
	Days   int    `query:"days" json:"days" default:"90" validate:"gte=30,lte=365"`
}

type WatchlistRequest struct {
	Sector string `query:"sector" json:"sector"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type HistoryRequest struct {
	PairKey string `query:"pair_key" json:"pair_key"`
	Limit   int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"500" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1m 1h 1d"`
}

type ExclusionRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}
