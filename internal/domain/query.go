package domain

// Locale selects which language variant of the text fields is searched.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleFR Locale = "fr"
)

// Sort options for search results.
const (
	SortAlphaAsc        = "alphabetically_az"
	SortAlphaDesc       = "alphabetically_za"
	SortPriceAsc        = "price_low_high"
	SortPriceDesc       = "price_high_low"
	SortDateAsc         = "date_old_new"
	SortDateDesc        = "date_new_old"
	SortRelevanceAsc    = "relevance_low_high"
	SortRelevanceDesc   = "relevance_high_low"
	SortDistanceNearFar = "distance_near_far"
	SortDistanceFarNear = "distance_far_near"
)

// SearchQuery holds all parameters for a product search request.
// Latitude/Longitude, price bounds, and category are optional; nil means
// the corresponding clause is omitted from the built query.
type SearchQuery struct {
	Term       string
	Latitude   *float64
	Longitude  *float64
	SortBy     string
	Limit      int
	Page       int
	Country    int
	RadiusKm   float64
	MinPrice   *float64
	MaxPrice   *float64
	CategoryID *int64
	Locale     Locale
}

// HasCoordinates reports whether both coordinates were supplied, which is
// required for the geo filter and the distance sorts.
func (q *SearchQuery) HasCoordinates() bool {
	return q.Latitude != nil && q.Longitude != nil
}

// Offset returns the zero-based document offset for the 1-based page number.
func (q *SearchQuery) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.Limit
}

// SearchResult holds the search response: the matched documents plus the
// total hit count across all pages.
type SearchResult struct {
	Products []ProductDocument `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
	TookMs   int64             `json:"took_ms"`
}

// SuggestQuery holds the parameters for a search-as-you-type suggestion
// request, a reduced variant of SearchQuery.
type SuggestQuery struct {
	Term    string
	Country int
	Locale  Locale
	Limit   int
	Page    int
}

// Offset returns the zero-based document offset for the 1-based page number.
func (q *SuggestQuery) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.Limit
}

// SuggestResult holds locale-appropriate product names plus the total count.
type SuggestResult struct {
	Names []string `json:"suggestions"`
	Total int      `json:"total"`
}

// ItemFailure reports a single document that failed within a bulk write.
type ItemFailure struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// RebuildSummary is the structured result of a full index rebuild. Per-item
// failures do not fail the batch; they are reported here.
type RebuildSummary struct {
	Indexed  int           `json:"indexed"`
	Failures []ItemFailure `json:"failures,omitempty"`
}

// ScoringPolicy names the scoring constants applied by the query builder.
// The zero value is not usable; start from DefaultScoringPolicy.
type ScoringPolicy struct {
	// MinScore excludes results whose combined score falls below it.
	// Applied to full searches only, never to suggestions.
	MinScore float64

	// Recency boost: a Gaussian decay over created_at anchored at "now".
	RecencyOrigin string
	RecencyOffset string
	RecencyScale  string

	// SearchDecay/SearchWeight shape the additive boost on full searches
	// (boost_mode sum, score_mode avg).
	SearchDecay  float64
	SearchWeight float64

	// SuggestDecay shapes the multiplicative boost on suggestions.
	SuggestDecay float64
}

// DefaultScoringPolicy returns the production scoring constants.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		MinScore:      4.7,
		RecencyOrigin: "now",
		RecencyOffset: "30d",
		RecencyScale:  "90d",
		SearchDecay:   0.7,
		SearchWeight:  0.8,
		SuggestDecay:  0.5,
	}
}

// PriceInferencePolicy controls when an implicit price filter is derived
// from free text. Inference only runs when the caller supplied neither an
// explicit minimum nor maximum price.
type PriceInferencePolicy struct {
	// Floor is the smallest extracted amount that triggers inference.
	Floor float64

	// BandFraction widens the inferred bound downward:
	// min_price = max_price - BandFraction*max_price.
	BandFraction float64
}

// DefaultPriceInferencePolicy returns the production inference constants.
func DefaultPriceInferencePolicy() PriceInferencePolicy {
	return PriceInferencePolicy{
		Floor:        50,
		BandFraction: 0.2,
	}
}
