package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ports"

	log "github.com/sirupsen/logrus"
)

// SubscriberArgs contain the mandatory arguments to build a subscriber.
type SubscriberArgs struct {
	// Subscription is a pubsub subscription
	Subscription *pubsub.Subscription

	// RequestEventHandler is a event handler
	RequestEventHandler ports.RequestEventHandler
}

// Subscriber is a pubsub async subscriber
type Subscriber struct {
	subscription        *pubsub.Subscription
	requestEventHandler ports.RequestEventHandler
}

// NewSubscriber creates a subscriber
func NewSubscriber(args SubscriberArgs) (*Subscriber, error) {
	if args.Subscription == nil {
		return nil, errors.New("subscription is nil")
	}
	if args.RequestEventHandler == nil {
		return nil, errors.New("request event handler is nil")
	}
	return &Subscriber{
		subscription:        args.Subscription,
		requestEventHandler: args.RequestEventHandler,
	}, nil
}

// Consume starts the subscriber. This is a blocking method and should be started in it's own go-routine.
// The way to terminate the method is to cancel the context in input.
func (s *Subscriber) Consume(ctx context.Context) error {
	if err := s.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		requestEvent, err := decodeRequestEvent(msg)
		if errors.Is(err, ErrIgnoreEvent) {
			log.WithError(err).WithField("message_id", msg.ID).Warn("dropping message")
			msg.Ack()
			return
		}
		if err != nil {
			log.WithError(err).Error("error decoding message into request-event")
			msg.Nack()
			return
		}

		if err := s.requestEventHandler.Handle(ctx, *requestEvent); err != nil {
			log.WithError(err).WithField("event_id", requestEvent.ID).Error("error in request event handler")
			msg.Nack()
		} else {
			msg.Ack()
		}
	}); err != nil {
		return fmt.Errorf("error receiving messages from subscription: %w", err)
	}
	return nil
}

var (
	// ErrIgnoreEvent marks messages that can never be handled. They are acknowledged and dropped.
	ErrIgnoreEvent = errors.New("event should be ignored")
)

func decodeRequestEvent(msg *pubsub.Message) (*model.RequestEvent, error) {
	if msg == nil {
		return nil, errors.New("cannot decode nil pubsub msg")
	}
	if kind, ok := msg.Attributes["kind"]; ok && kind != "collection_request" {
		return nil, fmt.Errorf("%w: unexpected kind %q", ErrIgnoreEvent, kind)
	}

	requestEvent := new(model.RequestEvent)
	if err := json.Unmarshal(msg.Data, requestEvent); err != nil {
		return nil, fmt.Errorf("%w: json unmarshal error: %v", ErrIgnoreEvent, err)
	}
	if requestEvent.Before == nil && requestEvent.After == nil {
		return nil, fmt.Errorf("%w: empty request event", ErrIgnoreEvent)
	}
	if requestEvent.ID == "" {
		requestEvent.ID = msg.ID
	}
	return requestEvent, nil
}
