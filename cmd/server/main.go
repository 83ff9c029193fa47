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
	rest "github.com/rbroggi/wasteroute/internal/actors/http"
	produceractor "github.com/rbroggi/wasteroute/internal/actors/pubsub/producer"
	"github.com/rbroggi/wasteroute/internal/actors/token"
	"github.com/rbroggi/wasteroute/internal/config"
	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ordering"
	"github.com/rbroggi/wasteroute/internal/core/usecase"
	"github.com/rbroggi/wasteroute/internal/logging"
	"github.com/rbroggi/wasteroute/internal/storage"
	log "github.com/sirupsen/logrus"
)

const healthServiceName = "wasteroute.Server"

var (
	configFile         = flag.String("config", "", "path to a yaml config file")
	grpcServerEndpoint = flag.String("grpc-server-endpoint", "", "gRPC server endpoint, overrides server.grpc_endpoint")
	httpServerEndpoint = flag.String("http-server-endpoint", "", "HTTP server endpoint, overrides server.http_endpoint")
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
	if *grpcServerEndpoint != "" {
		cfg.Server.GRPCEndpoint = *grpcServerEndpoint
	}
	if *httpServerEndpoint != "" {
		cfg.Server.HTTPEndpoint = *httpServerEndpoint
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

	tokens, err := token.NewJWT(token.JWTArgs{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL})
	if err != nil {
		log.WithError(err).Error("could not initialize token service")
		return err
	}

	userSvc := usecase.NewUserService(usecase.UserServiceArgs{Repository: repo, Tokens: tokens})
	if cfg.HasAdmin() {
		username := cfg.Admin.Username
		if username == "" {
			username = "admin"
		}
		admin, err := userSvc.EnsureAdmin(ctx, model.RegisterUserArgs{Username: username, Email: cfg.Admin.Email, Password: cfg.Admin.Password})
		if err != nil {
			log.WithError(err).Error("could not bootstrap admin")
			return err
		}
		log.WithField("admin_id", admin.ID).Info("admin available")
	}
	requestSvc := usecase.NewRequestService(usecase.RequestServiceArgs{Requests: repo, Users: repo, Sender: producer})
	routeSvc := usecase.NewRouteService(usecase.RouteServiceArgs{
		Routes:   repo,
		Requests: repo,
		Users:    repo,
		Policy:   ordering.ByAddress{},
		Sender:   producer,
	}, usecase.WithLocation(loc))

	restServer, err := rest.NewServer(rest.ServerArgs{
		Users:    userSvc,
		Requests: requestSvc,
		Routes:   routeSvc,
		Tokens:   tokens,
	}, rest.WithLocation(loc))
	if err != nil {
		return err
	}

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

	lis, err := net.Listen("tcp", cfg.Server.GRPCEndpoint)
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

	conn, err := grpc.Dial(cfg.Server.GRPCEndpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	mux := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))
	if err := restServer.Register(mux); err != nil {
		return err
	}
	httpServer := &http.Server{Addr: cfg.Server.HTTPEndpoint, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
			cancel()
		}
	}()

	log.
		WithField("http-server-addr", cfg.Server.HTTPEndpoint).
		WithField("grpc-server-addr", cfg.Server.GRPCEndpoint).
		WithField("storage-backend", cfg.Storage.Backend).
		Info("servers up or soon to be up. listening to SIGTERM, SIGINT, SIGQUIT for stoping the server")

	// Wait for signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	select {
	case <-ch:
	case <-ctx.Done():
	}

	// Stop servers
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
		log.WithError(err).Fatal("server exited")
	}
}
