package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for product documents.
const DefaultIndexName = "products_index"

// buildIndexMapping returns the full JSON mapping for the products index.
// Free-text fields use search_as_you_type with a raw keyword sub-field for
// sorting; locale variants use the english and french analyzers. Changing a
// field's analysis type requires a rebuild, not an in-place mapping update.
func buildIndexMapping() string {
	return `{
  "mappings": {
    "properties": {
      "id":          { "type": "integer" },
      "name":        { "type": "search_as_you_type", "doc_values": false, "max_shingle_size": 3, "analyzer": "english", "fields": { "raw": { "type": "keyword" } } },
      "name_fr":     { "type": "search_as_you_type", "doc_values": false, "max_shingle_size": 3, "analyzer": "french", "fields": { "raw": { "type": "keyword" } } },
      "description": { "type": "search_as_you_type", "doc_values": false, "max_shingle_size": 3, "analyzer": "english", "fields": { "raw": { "type": "keyword" } } },
      "description_fr": { "type": "search_as_you_type", "doc_values": false, "max_shingle_size": 3, "analyzer": "french", "fields": { "raw": { "type": "keyword" } } },
      "category_id": { "type": "integer" },
      "category_name_en": { "type": "search_as_you_type", "doc_values": false, "max_shingle_size": 3, "analyzer": "english", "fields": { "raw": { "type": "keyword" } } },
      "category_name_fr": { "type": "search_as_you_type", "doc_values": false, "max_shingle_size": 3, "analyzer": "french", "fields": { "raw": { "type": "keyword" } } },
      "search_index": { "type": "search_as_you_type", "doc_values": false, "max_shingle_size": 3, "analyzer": "standard", "fields": { "raw": { "type": "keyword" } } },
      "brand_id":    { "type": "integer" },
      "user_id":     { "type": "integer" },
      "whole_sale":  { "type": "integer" },
      "country":     { "type": "integer", "fields": { "raw": { "type": "keyword" } } },
      "price":       { "type": "integer", "fields": { "raw": { "type": "keyword" } } },
      "price_formatted": { "type": "text", "fields": { "raw": { "type": "keyword" } } },
      "currency":    { "type": "text", "analyzer": "standard" },
      "latitude":    { "type": "double", "fields": { "raw": { "type": "keyword" } } },
      "longitude":   { "type": "double", "fields": { "raw": { "type": "keyword" } } },
      "location":    { "type": "geo_point" },
      "hash":        { "type": "text", "analyzer": "standard" },
      "image":       { "type": "text", "analyzer": "standard" },
      "created_at":  { "type": "date" },
      "updated_at":  { "type": "date" },
      "deleted_at":  { "type": "date" }
    }
  }
}`
}
