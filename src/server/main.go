package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"session-service/logger"
	"session-service/src/config"
	"session-service/src/db"
	"session-service/src/events"
	"session-service/src/presence"
	"session-service/src/rabbitmq"
	"session-service/src/repository"
	"session-service/src/router"
	"session-service/src/service"
)

// Server represents the HTTP server and its background sweeper
type Server struct {
	config          *config.GlobalConfig
	database        *db.DB
	publisher       *rabbitmq.AMQPPublisher
	redisClient     *redis.Client
	sweeper         *service.Sweeper
	sweeperStop     chan struct{}
	http            *http.Server
	shutdownHandler ShutdownHandlerInterface
}

// NewServer creates a new server instance and wires the stores, services and
// event emitter together.
func NewServer(cfg *config.GlobalConfig) (*Server, error) {
	database, err := db.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	publisher, err := rabbitmq.NewAMQPPublisher(cfg.AMQPURL(), "session.events")
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	var emitter events.Emitter = rabbitmq.NewEmitter(publisher)

	requests := repository.NewRequestRepository(database)
	sessions := repository.NewSessionRepository(database)
	mechanics := repository.NewMechanicRepository(database)

	var redisClient *redis.Client
	var shifts *presence.Store
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		shifts = presence.NewStore(redisClient)
	}

	capacity := service.NewCapacityGuard(sessions)
	sweeper := service.NewSweeper(requests, sessions, emitter)

	// presence.Store is only a ShiftChecker/ShiftMarker when configured; a
	// typed nil would defeat the nil checks in the services.
	var shiftChecker service.ShiftChecker
	var shiftMarker service.ShiftMarker
	if shifts != nil {
		shiftChecker = shifts
		shiftMarker = shifts
	}

	deps := router.Deps{
		Requests:  service.NewRequestService(requests, sessions, emitter, cfg.RequestTTL),
		Arbiter:   service.NewArbiter(requests, sessions, mechanics, capacity, shiftChecker, emitter),
		Sessions:  service.NewSessionService(sessions, emitter),
		Sweeper:   sweeper,
		Capacity:  capacity,
		Mechanics: service.NewMechanicService(mechanics, shiftMarker),
		Logger:    logger.Logger,
	}

	server := &Server{
		config:      cfg,
		database:    database,
		publisher:   publisher,
		redisClient: redisClient,
		sweeper:     sweeper,
		sweeperStop: make(chan struct{}),
	}
	server.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler: router.NewRouter(cfg, deps),
	}
	server.shutdownHandler = NewShutdownHandler(server)

	return server, nil
}

// Run starts the server with graceful shutdown using ShutdownHandler
func (s *Server) Run() error {
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	s.startSweeper()
	serverDone := s.startServerGoroutine()

	return s.shutdownHandler.HandleShutdown(serverDone, osSignals)
}

// startServerGoroutine starts the HTTP server in a goroutine and returns a channel for errors
func (s *Server) startServerGoroutine() chan error {
	serverDone := make(chan error, 1)

	go func() {
		slog.Info("Starting session service",
			"host", s.config.Host,
			"port", s.config.Port)

		serverDone <- s.startServer()
	}()

	return serverDone
}

// startServer starts the HTTP server and handles errors
func (s *Server) startServer() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// startSweeper runs the expiry sweep on a fixed interval until shutdown.
func (s *Server) startSweeper() {
	go s.sweeper.RunPeriodic(s.config.SweepInterval, s.sweeperStop)
}
