package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/db"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
	fleetGrpc "liyu1981.xyz/robot-fleet-service/pkg/grpc"
	fleetHttp "liyu1981.xyz/robot-fleet-service/pkg/http"
	"liyu1981.xyz/robot-fleet-service/pkg/hub"
	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
	"liyu1981.xyz/robot-fleet-service/pkg/relay"
	"liyu1981.xyz/robot-fleet-service/pkg/status"
	"liyu1981.xyz/robot-fleet-service/pkg/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var err error

	err = godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file, copy .env.example to .env first if in development")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	var dbInstance *db.DB
	switch cfg.DBType {
	case "file":
		dbInstance = db.GetInstance(db.UseSqliteDialector())
	case "memory":
		dbInstance = db.GetInstance(db.UseMemorySqliteDialector())
	}

	logger := common.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	registry := hub.NewRegistry(m)
	broadcaster := hub.New(registry, m)

	fleetCore := fleet.Fleet{
		Db: *dbInstance,
	}
	fleetCore.WithDefaultServices()
	fleetCore.WithServices(fleet.ServiceOpts{Publisher: broadcaster})

	newLimiter := func() *fleet.RateLimiterStore {
		return fleet.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst)
	}
	logger.Info("Rate limiters created with:",
		zap.String("default_limiter",
			fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst)))

	if cfg.MqttBroker != "" {
		client, err := relay.Dial(ctx, relay.Config{
			Broker:   cfg.MqttBroker,
			ClientID: cfg.MqttClientID,
			User:     cfg.MqttUser,
			Password: cfg.MqttPassword,
		})
		if err != nil {
			log.Fatalf("relay failed to connect: %v", err)
		}
		r := relay.New(client, broadcaster, relay.WithMetrics(m))
		if err := r.Start(); err != nil {
			log.Fatalf("relay failed to start: %v", err)
		}
		defer r.Close()
		broadcaster.AddForwarder(r)
		logger.Info("Relay started", zap.String("broker", cfg.MqttBroker), zap.String("origin", r.Origin()))
	}

	var wg sync.WaitGroup

	mutator := status.NewMutator(fleetCore.Telemetry, broadcaster,
		status.WithInterval(cfg.TickInterval),
		status.WithMetrics(m))
	wg.Add(1)
	go func() {
		defer wg.Done()
		mutator.Run(ctx)
	}()

	socket := ws.NewServer(registry,
		ws.WithLimiter(newLimiter()),
		ws.WithMetrics(m),
		ws.WithSendBuffer(cfg.WsSendBuffer))

	var grpcServer *grpc.Server
	if cfg.GrpcHostPort != "" {
		fleetGrpcServer := &fleetGrpc.FleetServer{
			Fleet:            &fleetCore,
			Registry:         registry,
			RateLimiterStore: newLimiter(),
			Metrics:          m,
		}
		targets := []proto.Message{&wrapperspb.StringValue{}}
		grpcServer = grpc.NewServer(
			grpc.UnaryInterceptor(fleetGrpcServer.CreateRateLimitInterceptor(targets)),
			grpc.StreamInterceptor(fleetGrpcServer.CreateStreamRateLimitInterceptor(targets)),
		)
		fleetGrpc.RegisterRobotServiceServer(grpcServer, fleetGrpcServer)

		listener, err := net.Listen("tcp", cfg.GrpcHostPort)
		if err != nil {
			log.Fatalf("failed to listen: %v", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("start gRPC server on " + cfg.GrpcHostPort)
			if err := grpcServer.Serve(listener); err != nil {
				logger.Error("grpc server failed to serve", zap.Error(err))
				stop()
			}
		}()
	}

	if !common.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	rs := &fleetHttp.RestfulServer{
		Server:           gin.Default(),
		Fleet:            &fleetCore,
		RateLimiterStore: newLimiter(),
		Metrics:          m,
		Socket:           socket,
		ApiToken:         cfg.ApiToken,
	}
	rs.Setup()

	httpServer := &http.Server{
		Addr:    cfg.HttpHostPort,
		Handler: rs.Server,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting HTTP server on: " + cfg.HttpHostPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed to serve", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	socket.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	wg.Wait()
	logger.Info("Stopped")
}
