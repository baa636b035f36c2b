package kafkax

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// NewEventMessage builds a message on topic eventType keyed by key, tagged
// with the event headers and the trace context of ctx.
func NewEventMessage(ctx context.Context, eventID, eventType, key string, payload []byte) kafka.Message {
	h := headers{
		{Key: HeaderEventID, Value: []byte(eventID)},
		{Key: HeaderEventType, Value: []byte(eventType)},
	}
	otel.GetTextMapPropagator().Inject(ctx, &h)
	return kafka.Message{
		Topic:   eventType,
		Key:     []byte(key),
		Value:   payload,
		Headers: h,
	}
}

// headers adapts Kafka headers to a propagation carrier.
type headers []kafka.Header

func (h *headers) Get(key string) string {
	return HeaderValue(*h, key)
}

func (h *headers) Keys() []string {
	keys := make([]string, len(*h))
	for i, kv := range *h {
		keys[i] = kv.Key
	}
	return keys
}

func (h *headers) Set(key, value string) {
	for i := range *h {
		if (*h)[i].Key == key {
			(*h)[i].Value = []byte(value)
			return
		}
	}
	*h = append(*h, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headers)(nil)
