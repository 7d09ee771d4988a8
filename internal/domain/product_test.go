package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestFormatLargeNumber(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{950, "950"},
		{1000, "1K"},
		{1500, "1.5K"},
		{2500000, "2.5M"},
		{-2000000, "-2M"},
		{3000000000, "3B"},
		{1000000000000, "1T"},
		{999000000000000, "999T"},
		// Beyond the largest unit the magnitude is allowed to exceed 1000.
		{2500000000000000, "2500T"},
		{-1500, "-1.5K"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatLargeNumber(tc.in), "FormatLargeNumber(%d)", tc.in)
	}
}

func TestNewLocation_RoundsToTwoDecimals(t *testing.T) {
	loc := NewLocation(ptr(1.234), ptr(5.678))
	require.NotNil(t, loc)
	assert.Equal(t, 1.23, loc.Lat)
	assert.Equal(t, 5.68, loc.Lon)
}

func TestNewLocation_RequiresBothCoordinates(t *testing.T) {
	assert.Nil(t, NewLocation(nil, nil))
	assert.Nil(t, NewLocation(ptr(1.0), nil))
	assert.Nil(t, NewLocation(nil, ptr(1.0)))
}

func TestProductDocument_DeriveFields(t *testing.T) {
	doc := ProductDocument{
		ID:        1,
		Price:     ptr(int64(1500)),
		Latitude:  ptr(45.5017),
		Longitude: ptr(-73.5673),
	}

	doc.DeriveFields()

	require.NotNil(t, doc.PriceFormatted)
	assert.Equal(t, "1.5K", *doc.PriceFormatted)
	require.NotNil(t, doc.Location)
	assert.Equal(t, 45.5, doc.Location.Lat)
	assert.Equal(t, -73.57, doc.Location.Lon)
}

func TestProductDocument_DeriveFields_AbsentSources(t *testing.T) {
	doc := ProductDocument{ID: 2, Latitude: ptr(45.5)}

	doc.DeriveFields()

	assert.Nil(t, doc.PriceFormatted)
	assert.Nil(t, doc.Location, "a single coordinate must not produce a location")
}

func TestProductUpdate_Changes_OnlyPresentFields(t *testing.T) {
	u := ProductUpdate{
		ID:    ptr(int64(42)),
		Name:  ptr("Road Bike"),
		Price: ptr(int64(2000000)),
	}

	changes := u.Changes()

	assert.Equal(t, int64(42), changes["id"])
	assert.Equal(t, "Road Bike", changes["name"])
	assert.Equal(t, int64(2000000), changes["price"])
	assert.Equal(t, "2M", changes["price_formatted"])
	assert.NotContains(t, changes, "description")
	assert.NotContains(t, changes, "currency")
}

func TestProductUpdate_Changes_NullsPriceFormattedWithoutPrice(t *testing.T) {
	u := ProductUpdate{
		ID:   ptr(int64(7)),
		Name: ptr("Lamp"),
	}

	changes := u.Changes()

	require.Contains(t, changes, "price_formatted")
	assert.Nil(t, changes["price_formatted"])
}

func TestProductUpdate_Changes_KeysAreAllowListed(t *testing.T) {
	now := time.Now().UTC()
	u := ProductUpdate{
		ID:             ptr(int64(1)),
		Name:           ptr("a"),
		NameFR:         ptr("b"),
		Description:    ptr("c"),
		DescriptionFR:  ptr("d"),
		CategoryID:     ptr(int64(2)),
		CategoryNameEN: ptr("e"),
		CategoryNameFR: ptr("f"),
		BrandID:        ptr(int64(3)),
		UserID:         ptr(int64(4)),
		Country:        ptr(1),
		WholeSale:      ptr(0),
		Price:          ptr(int64(5)),
		Currency:       ptr("USD"),
		Latitude:       ptr(1.0),
		Longitude:      ptr(2.0),
		Hash:           ptr("h"),
		Image:          ptr("i"),
		SearchIndex:    ptr("s"),
		CreatedAt:      &now,
		UpdatedAt:      &now,
		DeletedAt:      &now,
	}

	allowed := make(map[string]struct{})
	for _, f := range UpdatableFields() {
		allowed[f] = struct{}{}
	}

	for key := range u.Changes() {
		_, ok := allowed[key]
		assert.True(t, ok, "field %q is not allow-listed", key)
	}
}
