// Package memory provides an in-memory SearchEngine used in tests and as a
// lightweight backend for local development. Matching approximates the
// document store: case-insensitive per-token substring search over the
// locale field set, exact country/category terms, price range, and
// haversine geo filtering. Relevance scoring is not simulated.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bazario/search-service/internal/domain"
)

// Engine is an in-memory implementation of the SearchEngine interface.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu   sync.RWMutex
	docs map[int64]domain.ProductDocument
}

// New creates a new in-memory search engine.
func New() *Engine {
	return &Engine{
		docs: make(map[int64]domain.ProductDocument),
	}
}

// Len returns the number of indexed documents.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Get returns the stored document for id, if present.
func (e *Engine) Get(id int64) (domain.ProductDocument, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	doc, ok := e.docs[id]
	return doc, ok
}

// Search executes a search query against the in-memory index.
func (e *Engine) Search(_ context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	start := time.Now()

	e.mu.RLock()
	matched := make([]domain.ProductDocument, 0)
	for _, doc := range e.docs {
		if e.matches(doc, query) {
			matched = append(matched, doc)
		}
	}
	e.mu.RUnlock()

	e.sortDocs(matched, query)

	total := len(matched)
	offset := query.Offset()
	if offset > total {
		offset = total
	}
	end := offset + query.Limit
	if end > total {
		end = total
	}

	return &domain.SearchResult{
		Products: matched[offset:end],
		Total:    total,
		Page:     query.Page,
		PerPage:  query.Limit,
		TookMs:   time.Since(start).Milliseconds(),
	}, nil
}

// Suggest returns locale-appropriate names of documents whose name matches
// the prefix, most recent first.
func (e *Engine) Suggest(_ context.Context, query *domain.SuggestQuery) (*domain.SuggestResult, error) {
	term := strings.ToLower(query.Term)

	e.mu.RLock()
	matched := make([]domain.ProductDocument, 0)
	for _, doc := range e.docs {
		if doc.Country != query.Country {
			continue
		}
		name := doc.Name
		if query.Locale == domain.LocaleFR {
			name = doc.NameFR
		}
		if strings.HasPrefix(strings.ToLower(name), term) {
			matched = append(matched, doc)
		}
	}
	e.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := query.Offset()
	if offset > total {
		offset = total
	}
	end := offset + query.Limit
	if end > total {
		end = total
	}

	names := make([]string, 0, end-offset)
	for _, doc := range matched[offset:end] {
		if query.Locale == domain.LocaleFR {
			names = append(names, doc.NameFR)
		} else {
			names = append(names, doc.Name)
		}
	}

	return &domain.SuggestResult{Names: names, Total: total}, nil
}

// Rebuild replaces the whole index with the given documents.
func (e *Engine) Rebuild(_ context.Context, docs []domain.ProductDocument) (*domain.RebuildSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.docs = make(map[int64]domain.ProductDocument, len(docs))
	for i := range docs {
		e.docs[docs[i].ID] = docs[i]
	}
	return &domain.RebuildSummary{Indexed: len(docs)}, nil
}

// Upsert creates the document if absent, otherwise merges the present
// fields into the stored document.
func (e *Engine) Upsert(_ context.Context, update *domain.ProductUpdate) (bool, error) {
	id := *update.ID
	changes := update.Changes()

	e.mu.Lock()
	defer e.mu.Unlock()

	existing, ok := e.docs[id]
	if !ok {
		if loc := domain.NewLocation(update.Latitude, update.Longitude); loc != nil {
			changes["location"] = loc
		}
		doc, err := docFromFields(changes)
		if err != nil {
			return false, err
		}
		e.docs[id] = doc
		return true, nil
	}

	merged, err := mergeFields(existing, changes)
	if err != nil {
		return false, err
	}
	e.docs[id] = merged
	return true, nil
}

// docFromFields builds a document from a field map via JSON round-trip.
func docFromFields(fields map[string]any) (domain.ProductDocument, error) {
	var doc domain.ProductDocument
	raw, err := json.Marshal(fields)
	if err != nil {
		return doc, fmt.Errorf("memory index: marshal fields: %w", err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("memory index: unmarshal fields: %w", err)
	}
	return doc, nil
}

// mergeFields applies the field map on top of the stored document, the
// field-merge equivalent of the store's update script.
func mergeFields(existing domain.ProductDocument, changes map[string]any) (domain.ProductDocument, error) {
	raw, err := json.Marshal(existing)
	if err != nil {
		return existing, fmt.Errorf("memory update: marshal document: %w", err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return existing, fmt.Errorf("memory update: unmarshal document: %w", err)
	}
	for k, v := range changes {
		asMap[k] = v
	}
	return docFromFields(asMap)
}

// matches checks whether a document matches the query's text and filters.
func (e *Engine) matches(doc domain.ProductDocument, query *domain.SearchQuery) bool {
	if doc.Country != query.Country {
		return false
	}

	if tokens := strings.Fields(strings.ToLower(query.Term)); len(tokens) > 0 {
		var haystack []string
		if query.Locale == domain.LocaleFR {
			haystack = []string{doc.NameFR, doc.CategoryNameFR, doc.DescriptionFR, doc.SearchIndex, doc.Hash}
		} else {
			haystack = []string{doc.Name, doc.CategoryNameEN, doc.Description, doc.SearchIndex, doc.Hash}
		}
		// Any token may match any field, mirroring an OR multi-match.
		found := false
	outer:
		for _, field := range haystack {
			lower := strings.ToLower(field)
			for _, tok := range tokens {
				if strings.Contains(lower, tok) {
					found = true
					break outer
				}
			}
		}
		if !found {
			return false
		}
	}

	if query.CategoryID != nil && doc.CategoryID != *query.CategoryID {
		return false
	}

	if query.MinPrice != nil && (doc.Price == nil || float64(*doc.Price) < *query.MinPrice) {
		return false
	}
	if query.MaxPrice != nil && (doc.Price == nil || float64(*doc.Price) > *query.MaxPrice) {
		return false
	}

	if query.HasCoordinates() {
		if doc.Location == nil {
			return false
		}
		dist := haversineKm(*query.Latitude, *query.Longitude, doc.Location.Lat, doc.Location.Lon)
		if dist > query.RadiusKm {
			return false
		}
	}

	return true
}

// sortDocs orders the matched documents based on the sort option.
// Relevance modes keep map iteration order stabilized by id so paging
// stays deterministic.
func (e *Engine) sortDocs(docs []domain.ProductDocument, query *domain.SearchQuery) {
	price := func(d domain.ProductDocument) int64 {
		if d.Price == nil {
			return math.MaxInt64
		}
		return *d.Price
	}

	switch query.SortBy {
	case domain.SortAlphaAsc:
		sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	case domain.SortAlphaDesc:
		sort.Slice(docs, func(i, j int) bool { return docs[i].Name > docs[j].Name })
	case domain.SortPriceAsc:
		sort.Slice(docs, func(i, j int) bool { return price(docs[i]) < price(docs[j]) })
	case domain.SortPriceDesc:
		sort.Slice(docs, func(i, j int) bool { return price(docs[i]) > price(docs[j]) })
	case domain.SortDateAsc:
		sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	case domain.SortDateDesc:
		sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	case domain.SortDistanceNearFar, domain.SortDistanceFarNear:
		if !query.HasCoordinates() {
			sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
			return
		}
		dist := func(d domain.ProductDocument) float64 {
			if d.Location == nil {
				return math.Inf(1)
			}
			return haversineKm(*query.Latitude, *query.Longitude, d.Location.Lat, d.Location.Lon)
		}
		if query.SortBy == domain.SortDistanceNearFar {
			sort.Slice(docs, func(i, j int) bool { return dist(docs[i]) < dist(docs[j]) })
		} else {
			sort.Slice(docs, func(i, j int) bool { return dist(docs[i]) > dist(docs[j]) })
		}
	default:
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}
}

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance between two points.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
