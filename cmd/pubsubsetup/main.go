package main

import (
	"context"
	"flag"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/rbroggi/wasteroute/internal/config"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var configFile = flag.String("config", "", "path to a yaml config file")

// Without arguments the project, topics and subscription come from the configuration.
// Otherwise the first argument follows the pattern PROJECTID,TOPIC1:SUBSCRIPTION11:SUBSCRIPTION12,TOPIC2:SUBSCRIPTION21
func main() {
	flag.Parse()

	var (
		projectID string
		layout    map[string][]string
	)
	if flag.NArg() > 0 {
		projectID, layout = fromArg(flag.Arg(0))
	} else {
		projectID, layout = fromConfig()
	}

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.WithError(err).WithField("project", projectID).Fatal("unable to create pubsub client")
	}
	defer client.Close()

	for topicID, subscriptions := range layout {
		topic, err := client.CreateTopic(ctx, topicID)
		if status.Code(err) == codes.AlreadyExists {
			topic = client.Topic(topicID)
		} else if err != nil {
			log.WithError(err).WithField("topic", topicID).Fatal("unable to create topic")
		}

		for _, subscriptionID := range subscriptions {
			_, err = client.CreateSubscription(ctx, subscriptionID, pubsub.SubscriptionConfig{Topic: topic})
			if err != nil && status.Code(err) != codes.AlreadyExists {
				log.WithError(err).WithField("topic", topicID).WithField("subscription", subscriptionID).Fatal("unable to create subscription")
			}
			log.WithField("project", projectID).WithField("topic", topicID).WithField("subscription", subscriptionID).Info("subscription ready")
		}
		log.WithField("project", projectID).WithField("topic", topicID).Info("topic ready")
	}
}

func fromConfig() (string, map[string][]string) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.WithError(err).Fatal("error loading config")
	}
	return cfg.PubSub.ProjectID, map[string][]string{
		cfg.PubSub.RequestTopic: {cfg.PubSub.RequestSubscription},
		cfg.PubSub.RouteTopic:   nil,
	}
}

func fromArg(arg string) (string, map[string][]string) {
	items := strings.Split(arg, ",")
	projectID := strings.ReplaceAll(items[0], " ", "")
	layout := make(map[string][]string, len(items)-1)
	for _, item := range items[1:] {
		// Split the item into topic and subscriptions
		parts := strings.Split(item, ":")
		topicID := strings.ReplaceAll(parts[0], " ", "")
		for _, s := range parts[1:] {
			layout[topicID] = append(layout[topicID], strings.ReplaceAll(s, " ", ""))
		}
		if _, ok := layout[topicID]; !ok {
			layout[topicID] = nil
		}
	}
	return projectID, layout
}
