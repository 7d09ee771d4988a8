// Package event handles product domain events that keep the search index
// current between full rebuilds.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bazario/search-service/internal/domain"
	"github.com/bazario/search-service/internal/service"
	pkgkafka "github.com/bazario/search-service/pkg/kafka"
)

// Kafka topic constants for product domain events consumed by the search service.
const (
	TopicProductCreated = "bazario.product.created"
	TopicProductUpdated = "bazario.product.updated"
)

// Consumer handles Kafka events related to product changes for search indexing.
type Consumer struct {
	searchService *service.SearchService
	logger        *slog.Logger
}

// NewConsumer creates a new event consumer for the search service.
func NewConsumer(searchService *service.SearchService, logger *slog.Logger) *Consumer {
	return &Consumer{
		searchService: searchService,
		logger:        logger,
	}
}

// Handle processes a Kafka event based on its type. Created and updated
// events carry the same partial-document payload and both map onto an
// upsert; only fields present in the payload touch the stored document.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated:
		return c.handleProductUpsert(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleProductUpsert(ctx context.Context, event *pkgkafka.Event) error {
	var update domain.ProductUpdate
	if err := event.UnmarshalData(&update); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	changed, err := c.searchService.UpsertProduct(ctx, &update)
	if err != nil {
		return fmt.Errorf("upsert product from %s event: %w", event.EventType, err)
	}

	if update.ID != nil {
		c.logger.InfoContext(ctx, "product event applied",
			slog.String("event_type", event.EventType),
			slog.Int64("product_id", *update.ID),
			slog.Bool("changed", changed),
		)
	}

	return nil
}
