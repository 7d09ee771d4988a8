package elasticsearch

import (
	"fmt"

	"github.com/bazario/search-service/internal/domain"
)

// searchFields returns the boosted multi-match field set for the locale.
func searchFields(locale domain.Locale) []string {
	if locale == domain.LocaleFR {
		return []string{"name_fr^2", "category_name_fr^2", "description_fr", "search_index", "hash"}
	}
	return []string{"name^2", "category_name_en^2", "description", "search_index", "hash"}
}

// suggestFields returns the single boosted name field for the locale.
func suggestFields(locale domain.Locale) []string {
	if locale == domain.LocaleFR {
		return []string{"name_fr^2"}
	}
	return []string{"name^2"}
}

// buildSearchQuery constructs the full search request body: a fuzzy
// multi-match plus country term inside a bool query, optional category,
// geo, and price clauses, wrapped in a function_score recency boost, with
// sorting, pagination, and the minimum-score cutoff applied.
func buildSearchQuery(q *domain.SearchQuery, pol domain.ScoringPolicy) map[string]any {
	must := []any{
		map[string]any{
			"multi_match": map[string]any{
				"query":     q.Term,
				"fields":    searchFields(q.Locale),
				"fuzziness": "AUTO",
			},
		},
		map[string]any{
			"term": map[string]any{"country": q.Country},
		},
	}

	if q.CategoryID != nil {
		// The criterion is intentionally listed twice; with
		// minimum_should_match=1 the duplication is a no-op on the
		// matched set.
		must = append(must, map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"match": map[string]any{"category_id": *q.CategoryID}},
					map[string]any{"match": map[string]any{"category_id": *q.CategoryID}},
				},
				"minimum_should_match": 1,
			},
		})
	}

	filter := []any{}
	if q.HasCoordinates() {
		filter = append(filter, map[string]any{
			"geo_distance": map[string]any{
				"distance": fmt.Sprintf("%gkm", q.RadiusKm),
				"location": map[string]any{
					"lat": *q.Latitude,
					"lon": *q.Longitude,
				},
			},
		})
	}
	if q.MinPrice != nil {
		filter = append(filter, map[string]any{
			"range": map[string]any{"price": map[string]any{"gte": *q.MinPrice}},
		})
	}
	if q.MaxPrice != nil {
		filter = append(filter, map[string]any{
			"range": map[string]any{"price": map[string]any{"lte": *q.MaxPrice}},
		})
	}

	return map[string]any{
		"size":      q.Limit,
		"from":      q.Offset(),
		"min_score": pol.MinScore,
		"query": map[string]any{
			"function_score": map[string]any{
				"query": map[string]any{
					"bool": map[string]any{
						"must":   must,
						"filter": filter,
					},
				},
				"functions": []any{
					map[string]any{
						"gauss": map[string]any{
							"created_at": map[string]any{
								"origin": pol.RecencyOrigin,
								"scale":  pol.RecencyScale,
								"offset": pol.RecencyOffset,
								"decay":  pol.SearchDecay,
							},
						},
						"weight": pol.SearchWeight,
					},
				},
				"boost_mode": "sum",
				"score_mode": "avg",
			},
		},
		"sort": buildSort(q),
	}
}

// buildSort maps the sort option to a sort clause. Distance sorts require
// coordinates; unrecognized or inapplicable options fall back to
// relevance-descending.
func buildSort(q *domain.SearchQuery) []any {
	switch q.SortBy {
	case domain.SortAlphaAsc:
		return []any{map[string]any{"name.raw": "asc"}}
	case domain.SortAlphaDesc:
		return []any{map[string]any{"name.raw": "desc"}}
	case domain.SortPriceAsc:
		return []any{map[string]any{"price": "asc"}}
	case domain.SortPriceDesc:
		return []any{map[string]any{"price": "desc"}}
	case domain.SortDateAsc:
		return []any{map[string]any{"created_at": "asc"}}
	case domain.SortDateDesc:
		return []any{map[string]any{"created_at": "desc"}}
	case domain.SortRelevanceAsc:
		return []any{map[string]any{"_score": "asc"}}
	case domain.SortRelevanceDesc:
		return []any{map[string]any{"_score": "desc"}}
	case domain.SortDistanceNearFar:
		if q.HasCoordinates() {
			return []any{geoDistanceSort(q, "asc")}
		}
	case domain.SortDistanceFarNear:
		if q.HasCoordinates() {
			return []any{geoDistanceSort(q, "desc")}
		}
	}
	return []any{map[string]any{"_score": "desc"}}
}

// geoDistanceSort ties identical scores by minimum distance to the point.
func geoDistanceSort(q *domain.SearchQuery, order string) map[string]any {
	return map[string]any{
		"_geo_distance": map[string]any{
			"location": map[string]any{"lat": *q.Latitude, "lon": *q.Longitude},
			"order":    order,
			"unit":     "km",
			"mode":     "min",
		},
	}
}

// buildSuggestQuery constructs the search-as-you-type request body: a
// bool_prefix multi-match on the locale name field, the country filter, and
// a multiplicative recency boost. Suggestions are always sorted by
// relevance-descending and carry no minimum-score cutoff.
func buildSuggestQuery(q *domain.SuggestQuery, pol domain.ScoringPolicy) map[string]any {
	return map[string]any{
		"size": q.Limit,
		"from": q.Offset(),
		"query": map[string]any{
			"function_score": map[string]any{
				"query": map[string]any{
					"bool": map[string]any{
						"must": []any{
							map[string]any{
								"multi_match": map[string]any{
									"query":     q.Term,
									"fields":    suggestFields(q.Locale),
									"fuzziness": "AUTO",
									"type":      "bool_prefix",
								},
							},
						},
						"filter": []any{
							map[string]any{
								"term": map[string]any{"country": q.Country},
							},
						},
					},
				},
				"functions": []any{
					map[string]any{
						"gauss": map[string]any{
							"created_at": map[string]any{
								"origin": pol.RecencyOrigin,
								"scale":  pol.RecencyScale,
								"offset": pol.RecencyOffset,
								"decay":  pol.SuggestDecay,
							},
						},
					},
				},
				"boost_mode": "multiply",
			},
		},
		"sort": []any{map[string]any{"_score": "desc"}},
	}
}
