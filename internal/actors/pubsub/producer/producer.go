package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/rbroggi/wasteroute/internal/core/model"
)

const (
	// KindAttribute is the message attribute carrying the event kind.
	KindAttribute = "kind"

	kindRequest = "collection_request"
	kindRoute   = "route"
)

// ProducerArgs are the mandatory arguments to build a Producer.
type ProducerArgs struct {
	// RequestTopic receives collection-request events.
	RequestTopic *pubsub.Topic

	// RouteTopic receives route events.
	RouteTopic *pubsub.Topic
}

// NewProducer creates a new producer.
func NewProducer(args ProducerArgs) (*Producer, error) {
	if args.RequestTopic == nil {
		return nil, errors.New("request topic is nil")
	}
	if args.RouteTopic == nil {
		return nil, errors.New("route topic is nil")
	}
	return &Producer{requestTopic: args.RequestTopic, routeTopic: args.RouteTopic}, nil
}

// Producer is the pubsub producer of collection-request and route events.
// It implements ports.RequestEventSender and ports.RouteEventSender.
type Producer struct {
	requestTopic *pubsub.Topic
	routeTopic   *pubsub.Topic
}

// SendRequestEvent publishes a collection-request event and waits for the server ack.
func (p *Producer) SendRequestEvent(ctx context.Context, event model.RequestEvent) error {
	return publish(ctx, p.requestTopic, kindRequest, event)
}

// SendRouteEvent publishes a route event and waits for the server ack.
func (p *Producer) SendRouteEvent(ctx context.Context, event model.RouteEvent) error {
	return publish(ctx, p.routeTopic, kindRoute, event)
}

func publish(ctx context.Context, topic *pubsub.Topic, kind string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshaling %s event: %w", kind, err)
	}
	result := topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{KindAttribute: kind},
	})
	// Block until the result is returned and a server-generated
	// ID is returned for the published message.
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("pubsub: result.Get: %w", err)
	}
	return nil
}
