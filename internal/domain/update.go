package domain

import "time"

// ProductUpdate is a partial product document submitted to the upsert
// operation. A nil field was not supplied and is left untouched on an
// existing document. PriceFormatted and Location are never taken from the
// caller; they are recomputed from Price and Latitude/Longitude.
type ProductUpdate struct {
	ID             *int64     `json:"id"`
	Name           *string    `json:"name,omitempty"`
	NameFR         *string    `json:"name_fr,omitempty"`
	Description    *string    `json:"description,omitempty"`
	DescriptionFR  *string    `json:"description_fr,omitempty"`
	CategoryID     *int64     `json:"category_id,omitempty"`
	CategoryNameEN *string    `json:"category_name_en,omitempty"`
	CategoryNameFR *string    `json:"category_name_fr,omitempty"`
	BrandID        *int64     `json:"brand_id,omitempty"`
	UserID         *int64     `json:"user_id,omitempty"`
	Country        *int       `json:"country,omitempty"`
	WholeSale      *int       `json:"whole_sale,omitempty"`
	Price          *int64     `json:"price,omitempty"`
	Currency       *string    `json:"currency,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	Hash           *string    `json:"hash,omitempty"`
	Image          *string    `json:"image,omitempty"`
	SearchIndex    *string    `json:"search_index,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// updatableFields is the fixed allow-list of document fields an upsert may
// touch. The partial-update script is generated from this list only, never
// from caller-supplied keys.
var updatableFields = []string{
	"id",
	"name",
	"name_fr",
	"description",
	"description_fr",
	"category_id",
	"category_name_en",
	"category_name_fr",
	"brand_id",
	"user_id",
	"country",
	"whole_sale",
	"price",
	"price_formatted",
	"currency",
	"latitude",
	"longitude",
	"hash",
	"image",
	"search_index",
	"created_at",
	"updated_at",
	"deleted_at",
}

// UpdatableFields returns the allow-listed field names in a fixed order.
func UpdatableFields() []string {
	fields := make([]string, len(updatableFields))
	copy(fields, updatableFields)
	return fields
}

// Changes returns the allow-listed fields present on the update, keyed by
// document field name. price_formatted is always included, recomputed from
// price (null when price is absent) so the pair can never diverge.
func (u *ProductUpdate) Changes() map[string]any {
	changes := make(map[string]any)

	put := func(field string, present bool, value any) {
		if present {
			changes[field] = value
		}
	}

	put("id", u.ID != nil, deref(u.ID))
	put("name", u.Name != nil, deref(u.Name))
	put("name_fr", u.NameFR != nil, deref(u.NameFR))
	put("description", u.Description != nil, deref(u.Description))
	put("description_fr", u.DescriptionFR != nil, deref(u.DescriptionFR))
	put("category_id", u.CategoryID != nil, deref(u.CategoryID))
	put("category_name_en", u.CategoryNameEN != nil, deref(u.CategoryNameEN))
	put("category_name_fr", u.CategoryNameFR != nil, deref(u.CategoryNameFR))
	put("brand_id", u.BrandID != nil, deref(u.BrandID))
	put("user_id", u.UserID != nil, deref(u.UserID))
	put("country", u.Country != nil, deref(u.Country))
	put("whole_sale", u.WholeSale != nil, deref(u.WholeSale))
	put("price", u.Price != nil, deref(u.Price))
	put("currency", u.Currency != nil, deref(u.Currency))
	put("latitude", u.Latitude != nil, deref(u.Latitude))
	put("longitude", u.Longitude != nil, deref(u.Longitude))
	put("hash", u.Hash != nil, deref(u.Hash))
	put("image", u.Image != nil, deref(u.Image))
	put("search_index", u.SearchIndex != nil, deref(u.SearchIndex))
	put("created_at", u.CreatedAt != nil, deref(u.CreatedAt))
	put("updated_at", u.UpdatedAt != nil, deref(u.UpdatedAt))
	put("deleted_at", u.DeletedAt != nil, deref(u.DeletedAt))

	if u.Price != nil {
		changes["price_formatted"] = FormatLargeNumber(*u.Price)
	} else {
		changes["price_formatted"] = nil
	}

	return changes
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
