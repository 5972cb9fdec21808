package enum

type SourceType string
type EstimateMethod string
type SortKey string

const (
	SourceTypeFile SourceType = "file"
	SourceTypeFeed SourceType = "feed"
)

// Pool estimation methods, in the order a single-game analysis tries them.
// MeanRatio is reserved for comparative runs.
const (
	MethodTicketAnchor   EstimateMethod = "ticket_anchor"
	MethodMedianFallback EstimateMethod = "median_fallback"
	MethodMeanRatio      EstimateMethod = "mean_ratio"
)

const (
	SortByPrice   SortKey = "price"
	SortByName    SortKey = "name"
	SortByNumber  SortKey = "number"
	SortByOdds    SortKey = "odds"
	SortByClaimed SortKey = "claimed"
	SortByCurrent SortKey = "current"
	SortByDelta   SortKey = "delta"
)

func (k SortKey) IsValid() bool {
	switch k {
	case SortByPrice, SortByName, SortByNumber, SortByOdds,
		SortByClaimed, SortByCurrent, SortByDelta:
		return true
	}
	return false
}
