package elasticsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazario/search-service/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func baseQuery() *domain.SearchQuery {
	return &domain.SearchQuery{
		Term:     "mountain bike",
		SortBy:   domain.SortRelevanceDesc,
		Limit:    20,
		Page:     1,
		Country:  1,
		RadiusKm: 20,
		Locale:   domain.LocaleEN,
	}
}

// boolClause digs the bool query out of the function_score wrapper.
func boolClause(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	fs, ok := body["query"].(map[string]any)["function_score"].(map[string]any)
	require.True(t, ok)
	b, ok := fs["query"].(map[string]any)["bool"].(map[string]any)
	require.True(t, ok)
	return b
}

func TestBuildSearchQuery_LocaleFieldSets(t *testing.T) {
	pol := domain.DefaultScoringPolicy()

	q := baseQuery()
	body := buildSearchQuery(q, pol)
	must := boolClause(t, body)["must"].([]any)
	match := must[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t,
		[]string{"name^2", "category_name_en^2", "description", "search_index", "hash"},
		match["fields"],
	)
	assert.Equal(t, "AUTO", match["fuzziness"])

	q.Locale = domain.LocaleFR
	body = buildSearchQuery(q, pol)
	must = boolClause(t, body)["must"].([]any)
	match = must[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t,
		[]string{"name_fr^2", "category_name_fr^2", "description_fr", "search_index", "hash"},
		match["fields"],
	)
}

func TestBuildSearchQuery_CountryIsRequired(t *testing.T) {
	q := baseQuery()
	q.Country = 7

	body := buildSearchQuery(q, domain.DefaultScoringPolicy())

	must := boolClause(t, body)["must"].([]any)
	term := must[1].(map[string]any)["term"].(map[string]any)
	assert.Equal(t, 7, term["country"])
}

func TestBuildSearchQuery_CategoryAnyOfGroup(t *testing.T) {
	q := baseQuery()
	q.CategoryID = ptr(int64(42))

	body := buildSearchQuery(q, domain.DefaultScoringPolicy())

	must := boolClause(t, body)["must"].([]any)
	require.Len(t, must, 3)
	group := must[2].(map[string]any)["bool"].(map[string]any)
	should := group["should"].([]any)
	require.Len(t, should, 2)
	assert.Equal(t, should[0], should[1], "duplicated criterion must be identical (no-op)")
	assert.Equal(t, 1, group["minimum_should_match"])
}

func TestBuildSearchQuery_NoCategoryWithoutID(t *testing.T) {
	body := buildSearchQuery(baseQuery(), domain.DefaultScoringPolicy())
	must := boolClause(t, body)["must"].([]any)
	assert.Len(t, must, 2)
}

func TestBuildSearchQuery_GeoFilterRequiresBothCoordinates(t *testing.T) {
	pol := domain.DefaultScoringPolicy()

	q := baseQuery()
	q.Latitude = ptr(45.5)
	body := buildSearchQuery(q, pol)
	assert.Empty(t, boolClause(t, body)["filter"].([]any))

	q.Longitude = ptr(-73.6)
	q.RadiusKm = 25
	body = buildSearchQuery(q, pol)
	filter := boolClause(t, body)["filter"].([]any)
	require.Len(t, filter, 1)
	geo := filter[0].(map[string]any)["geo_distance"].(map[string]any)
	assert.Equal(t, "25km", geo["distance"])
	assert.Equal(t, map[string]any{"lat": 45.5, "lon": -73.6}, geo["location"])
}

func TestBuildSearchQuery_IndependentPriceBounds(t *testing.T) {
	pol := domain.DefaultScoringPolicy()

	q := baseQuery()
	q.MinPrice = ptr(100.0)
	body := buildSearchQuery(q, pol)
	filter := boolClause(t, body)["filter"].([]any)
	require.Len(t, filter, 1)
	assert.Equal(t,
		map[string]any{"gte": 100.0},
		filter[0].(map[string]any)["range"].(map[string]any)["price"],
	)

	q.MaxPrice = ptr(500.0)
	body = buildSearchQuery(q, pol)
	filter = boolClause(t, body)["filter"].([]any)
	require.Len(t, filter, 2)
	assert.Equal(t,
		map[string]any{"lte": 500.0},
		filter[1].(map[string]any)["range"].(map[string]any)["price"],
	)
}

func TestBuildSearchQuery_ScoringShape(t *testing.T) {
	pol := domain.DefaultScoringPolicy()
	body := buildSearchQuery(baseQuery(), pol)

	assert.Equal(t, 4.7, body["min_score"])

	fs := body["query"].(map[string]any)["function_score"].(map[string]any)
	assert.Equal(t, "sum", fs["boost_mode"])
	assert.Equal(t, "avg", fs["score_mode"])

	fn := fs["functions"].([]any)[0].(map[string]any)
	assert.Equal(t, 0.8, fn["weight"])
	gauss := fn["gauss"].(map[string]any)["created_at"].(map[string]any)
	assert.Equal(t, "now", gauss["origin"])
	assert.Equal(t, "30d", gauss["offset"])
	assert.Equal(t, "90d", gauss["scale"])
	assert.Equal(t, 0.7, gauss["decay"])
}

func TestBuildSearchQuery_Pagination(t *testing.T) {
	q := baseQuery()
	q.Limit = 10
	q.Page = 3

	body := buildSearchQuery(q, domain.DefaultScoringPolicy())

	assert.Equal(t, 10, body["size"])
	assert.Equal(t, 20, body["from"])
}

func TestBuildSort_AllModes(t *testing.T) {
	lat, lon := 45.5, -73.6
	cases := []struct {
		sortBy string
		coords bool
		want   map[string]any
	}{
		{domain.SortAlphaAsc, false, map[string]any{"name.raw": "asc"}},
		{domain.SortAlphaDesc, false, map[string]any{"name.raw": "desc"}},
		{domain.SortPriceAsc, false, map[string]any{"price": "asc"}},
		{domain.SortPriceDesc, false, map[string]any{"price": "desc"}},
		{domain.SortDateAsc, false, map[string]any{"created_at": "asc"}},
		{domain.SortDateDesc, false, map[string]any{"created_at": "desc"}},
		{domain.SortRelevanceAsc, false, map[string]any{"_score": "asc"}},
		{domain.SortRelevanceDesc, false, map[string]any{"_score": "desc"}},
		{"bogus", false, map[string]any{"_score": "desc"}},
		{"", false, map[string]any{"_score": "desc"}},
	}

	for _, tc := range cases {
		q := baseQuery()
		q.SortBy = tc.sortBy
		if tc.coords {
			q.Latitude, q.Longitude = &lat, &lon
		}
		sort := buildSort(q)
		require.Len(t, sort, 1, "sort_by=%q", tc.sortBy)
		assert.Equal(t, tc.want, sort[0], "sort_by=%q", tc.sortBy)
	}
}

func TestBuildSort_DistanceSorts(t *testing.T) {
	q := baseQuery()
	q.SortBy = domain.SortDistanceNearFar
	q.Latitude = ptr(45.5)
	q.Longitude = ptr(-73.6)

	sort := buildSort(q)
	geo := sort[0].(map[string]any)["_geo_distance"].(map[string]any)
	assert.Equal(t, "asc", geo["order"])
	assert.Equal(t, "km", geo["unit"])
	assert.Equal(t, "min", geo["mode"])

	q.SortBy = domain.SortDistanceFarNear
	sort = buildSort(q)
	geo = sort[0].(map[string]any)["_geo_distance"].(map[string]any)
	assert.Equal(t, "desc", geo["order"])
}

func TestBuildSort_DistanceWithoutCoordinatesFallsBack(t *testing.T) {
	q := baseQuery()
	q.SortBy = domain.SortDistanceNearFar

	sort := buildSort(q)
	assert.Equal(t, map[string]any{"_score": "desc"}, sort[0])
}

func TestBuildSuggestQuery_Shape(t *testing.T) {
	pol := domain.DefaultScoringPolicy()
	q := &domain.SuggestQuery{
		Term:    "mou",
		Country: 1,
		Locale:  domain.LocaleEN,
		Limit:   20,
		Page:    2,
	}

	body := buildSuggestQuery(q, pol)

	assert.Equal(t, 20, body["size"])
	assert.Equal(t, 20, body["from"])
	assert.NotContains(t, body, "min_score", "suggestions carry no score cutoff")

	fs := body["query"].(map[string]any)["function_score"].(map[string]any)
	assert.Equal(t, "multiply", fs["boost_mode"])

	fn := fs["functions"].([]any)[0].(map[string]any)
	assert.NotContains(t, fn, "weight")
	gauss := fn["gauss"].(map[string]any)["created_at"].(map[string]any)
	assert.Equal(t, 0.5, gauss["decay"])

	b := fs["query"].(map[string]any)["bool"].(map[string]any)
	match := b["must"].([]any)[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, []string{"name^2"}, match["fields"])
	assert.Equal(t, "bool_prefix", match["type"])

	filter := b["filter"].([]any)
	assert.Equal(t, map[string]any{"country": 1}, filter[0].(map[string]any)["term"])

	assert.Equal(t, []any{map[string]any{"_score": "desc"}}, body["sort"])
}

func TestBuildSuggestQuery_FrenchLocale(t *testing.T) {
	q := &domain.SuggestQuery{Term: "vé", Country: 1, Locale: domain.LocaleFR, Limit: 10, Page: 1}

	body := buildSuggestQuery(q, domain.DefaultScoringPolicy())

	fs := body["query"].(map[string]any)["function_score"].(map[string]any)
	b := fs["query"].(map[string]any)["bool"].(map[string]any)
	match := b["must"].([]any)[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, []string{"name_fr^2"}, match["fields"])
}

func TestBuildUpdateScript_AllowListOnly(t *testing.T) {
	changes := map[string]any{
		"name":            "Bike",
		"price":           int64(100),
		"price_formatted": "100",
		// A hostile key must never reach the script source.
		`evil"; ctx._source.admin = true; "`: "x",
	}

	script := buildUpdateScript(changes)

	assert.Contains(t, script, "ctx._source.name = params.doc.name;")
	assert.Contains(t, script, "ctx._source.price = params.doc.price;")
	assert.Contains(t, script, "ctx._source.price_formatted = params.doc.price_formatted;")
	assert.NotContains(t, script, "evil")
	assert.NotContains(t, script, "admin")
}
