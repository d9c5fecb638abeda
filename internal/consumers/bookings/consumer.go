// Package bookings consumes Firestore change-trigger events for booking
// documents from Pub/Sub and feeds them into the replication pipeline.
package bookings

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/theescape/bookings-backend/internal/booking"
	"github.com/theescape/bookings-backend/internal/decode"
	pkgerrors "github.com/theescape/bookings-backend/pkg/errors"
	"github.com/theescape/bookings-backend/pkg/logger"
)

const sourceTrigger = "trigger"

type pipeline interface {
	Process(ctx context.Context, source string, ord booking.Order) error
}

// Consumer processes document change notifications until its context ends.
type Consumer struct {
	pipeline     pipeline
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(pipeline pipeline, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if pipeline == nil {
		return nil, errors.New("replication pipeline is required")
	}
	if subscription == nil {
		return nil, errors.New("bookings subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		pipeline:     pipeline,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

// changeEvent is the document change notification shape: the new document
// content in the typed field encoding plus its resource name.
type changeEvent struct {
	Value struct {
		Name   string         `json:"name"`
		Fields map[string]any `json:"fields"`
	} `json:"value"`
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithField(ctx, "message_id", msg.ID)

	payload, err := decodePayload(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode change event payload", err)
		return processResult{ack: true}
	}

	var event changeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal change event", err)
		return processResult{ack: true}
	}
	if len(event.Value.Fields) == 0 {
		c.logg.Warn(logCtx, "change event carries no document fields")
		return processResult{ack: true}
	}

	if doc := documentPath(event.Value.Name); doc != "" {
		logCtx = c.logg.WithField(logCtx, "document", doc)
	}

	ord, err := decode.Fields(event.Value.Fields)
	if err != nil {
		// Malformed documents will not improve on redelivery.
		c.logg.Error(logCtx, "failed to decode booking document", err)
		return processResult{ack: true}
	}

	if err := c.pipeline.Process(ctx, sourceTrigger, ord); err != nil {
		c.logg.Error(logCtx, "failed to replicate booking", err)
		if pkgerrors.Retryable(err) {
			return processResult{nack: true}
		}
		return processResult{ack: true}
	}

	c.logg.Info(logCtx, "booking change event replicated")
	return processResult{ack: true}
}

// documentPath extracts the collection/document suffix from the full
// resource name, e.g. projects/p/databases/(default)/documents/bookings/42.
func documentPath(name string) string {
	const marker = "/documents/"
	idx := strings.Index(name, marker)
	if idx < 0 {
		return ""
	}
	return name[idx+len(marker):]
}

func decodePayload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("payload empty")
	}
	if decoded, err := base64.StdEncoding.DecodeString(string(data)); err == nil {
		return decoded, nil
	}
	return data, nil
}
