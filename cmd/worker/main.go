package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/pubsub"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcactor "github.com/rbroggi/wasteroute/internal/actors/grpc"
	produceractor "github.com/rbroggi/wasteroute/internal/actors/pubsub/producer"
	subscriberactor "github.com/rbroggi/wasteroute/internal/actors/pubsub/subscriber"
	"github.com/rbroggi/wasteroute/internal/config"
	"github.com/rbroggi/wasteroute/internal/core/ordering"
	"github.com/rbroggi/wasteroute/internal/core/usecase"
	"github.com/rbroggi/wasteroute/internal/logging"
	"github.com/rbroggi/wasteroute/internal/storage"
	log "github.com/sirupsen/logrus"
)

const healthServiceName = "wasteroute.Worker"

var (
	configFile         = flag.String("config", "", "path to a yaml config file")
	grpcServerEndpoint = flag.String("grpc-server-endpoint", "localhost:50052", "gRPC server endpoint")
	httpServerEndpoint = flag.String("http-server-endpoint", "localhost:8081", "HTTP server endpoint")
)

func run() error {
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	repo, closeRepo, err := storage.Open(ctx, cfg, loc)
	if err != nil {
		log.WithError(err).Error("could not initialize repository")
		return err
	}
	defer closeRepo()

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return err
	}
	defer client.Close()

	requestTopic := client.Topic(cfg.PubSub.RequestTopic)
	defer requestTopic.Stop()
	routeTopic := client.Topic(cfg.PubSub.RouteTopic)
	defer routeTopic.Stop()
	producer, err := produceractor.NewProducer(produceractor.ProducerArgs{RequestTopic: requestTopic, RouteTopic: routeTopic})
	if err != nil {
		return err
	}

	routeSvc := usecase.NewRouteService(usecase.RouteServiceArgs{
		Routes:   repo,
		Requests: repo,
		Users:    repo,
		Policy:   ordering.ByAddress{},
		Sender:   producer,
	}, usecase.WithLocation(loc))
	janitor := usecase.NewRouteJanitor(routeSvc)

	subscriber, err := subscriberactor.NewSubscriber(subscriberactor.SubscriberArgs{
		Subscription:        client.Subscription(cfg.PubSub.RequestSubscription),
		RequestEventHandler: janitor,
	})
	if err != nil {
		return err
	}

	// start subscriber
	go func(ctx context.Context) {
		if err := subscriber.Consume(ctx); err != nil {
			log.WithError(err).Error("subscriber stopped")
			cancel()
		}
	}(ctx)

	healthServer := health.NewServer()
	monitor, err := grpcactor.NewHealthMonitor(grpcactor.HealthMonitorArgs{
		Server:   healthServer,
		Storage:  repo,
		Services: []string{healthServiceName},
	}, grpcactor.WithInterval(cfg.Server.HealthInterval))
	if err != nil {
		return err
	}
	go monitor.Monitor(ctx)

	lis, err := net.Listen("tcp", *grpcServerEndpoint)
	if err != nil {
		return err
	}

	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)

	// Register reflection service on gRPC server.
	reflection.Register(s)

	// Start gRPC server
	go func() {
		if err := s.Serve(lis); err != nil {
			log.WithError(err).Error("grpc server stopped")
			cancel()
		}
	}()

	conn, err := grpc.Dial(*grpcServerEndpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	// the worker only exposes /healthz over http
	mux := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))
	httpServer := &http.Server{Addr: *httpServerEndpoint, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
			cancel()
		}
	}()

	log.
		WithField("http-server-addr", *httpServerEndpoint).
		WithField("grpc-server-addr", *grpcServerEndpoint).
		WithField("subscription", cfg.PubSub.RequestSubscription).
		Info("worker up or soon to be up. listening to SIGTERM, SIGINT, SIGQUIT for stoping the worker")

	// Wait for signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	select {
	case <-ch:
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("error shutting down http server")
	}
	s.GracefulStop()

	return nil
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.WithError(err).Fatal("worker exited")
	}
}
