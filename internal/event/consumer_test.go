package event

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazario/search-service/internal/domain"
	"github.com/bazario/search-service/internal/engine/memory"
	"github.com/bazario/search-service/internal/service"
	pkgkafka "github.com/bazario/search-service/pkg/kafka"
)

type emptySource struct{}

func (emptySource) FetchAll(_ context.Context) ([]domain.ProductDocument, error) {
	return nil, nil
}

func newTestConsumer(t *testing.T) (*Consumer, *memory.Engine) {
	t.Helper()
	eng := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewSearchService(eng, emptySource{}, domain.DefaultPriceInferencePolicy(), logger)
	return NewConsumer(svc, logger), eng
}

func productEvent(t *testing.T, eventType string, payload any) *pkgkafka.Event {
	t.Helper()
	ev, err := pkgkafka.NewEvent(eventType, "7", "product", "product-service", payload)
	require.NoError(t, err)
	return ev
}

func TestHandle_ProductCreated(t *testing.T) {
	consumer, eng := newTestConsumer(t)

	ev := productEvent(t, TopicProductCreated, map[string]any{
		"id":      7,
		"name":    "Canoe",
		"country": 1,
		"price":   1500,
	})

	require.NoError(t, consumer.Handle(context.Background(), ev))

	doc, ok := eng.Get(7)
	require.True(t, ok)
	assert.Equal(t, "Canoe", doc.Name)
	require.NotNil(t, doc.Price)
	assert.Equal(t, int64(1500), *doc.Price)
}

func TestHandle_ProductUpdatedMergesPresentFields(t *testing.T) {
	consumer, eng := newTestConsumer(t)

	created := productEvent(t, TopicProductCreated, map[string]any{
		"id": 7, "name": "Canoe", "country": 1, "price": 1500,
	})
	require.NoError(t, consumer.Handle(context.Background(), created))

	updated := productEvent(t, TopicProductUpdated, map[string]any{
		"id": 7, "price": 1200,
	})
	require.NoError(t, consumer.Handle(context.Background(), updated))

	doc, ok := eng.Get(7)
	require.True(t, ok)
	assert.Equal(t, "Canoe", doc.Name)
	require.NotNil(t, doc.Price)
	assert.Equal(t, int64(1200), *doc.Price)
}

func TestHandle_UnknownEventTypeIsIgnored(t *testing.T) {
	consumer, eng := newTestConsumer(t)

	ev := productEvent(t, "bazario.order.created", map[string]any{"id": 7})

	assert.NoError(t, consumer.Handle(context.Background(), ev))
	assert.Equal(t, 0, eng.Len())
}

func TestHandle_MalformedPayload(t *testing.T) {
	consumer, _ := newTestConsumer(t)

	ev := productEvent(t, TopicProductCreated, map[string]any{"id": "not-a-number"})

	assert.Error(t, consumer.Handle(context.Background(), ev))
}

func TestHandle_MissingProductID(t *testing.T) {
	consumer, _ := newTestConsumer(t)

	ev := productEvent(t, TopicProductUpdated, map[string]any{"price": 100})

	assert.Error(t, consumer.Handle(context.Background(), ev))
}
