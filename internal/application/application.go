package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/browsers"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/config"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/database"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/handler"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/hub"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/router"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/service"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/state"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg         *config.Config
	srv         *http.Server
	db          *gorm.DB
	store       state.Store
	hub         *hub.Hub
	coordinator *service.Coordinator
	logger      *zap.Logger
}

// NewAPI creates the API application: validates config, runs migrations,
// opens collaborators, and builds the router.
func NewAPI(ctx context.Context, cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	var store state.Store
	switch cfg.StateBackend {
	case config.BackendRedis:
		store, err = state.NewRedisStore(ctx, cfg.RedisURL, cfg.EmptyRoomGrace, cfg.RoomDataTTL)
		if err != nil {
			return nil, fmt.Errorf("redis state: %w", err)
		}
	default:
		store = state.NewMemoryStore(cfg.EmptyRoomGrace, cfg.RoomDataTTL)
	}

	h := hub.New(logger)
	roomSvc := service.NewGormRoomService(db)
	syncer := service.NewPositionSyncer(cfg.SyncTolerance, cfg.SyncQuorum)
	coordinator := service.NewCoordinator(store, roomSvc, syncer, h, logger)

	var pool browsers.Pool
	if cfg.BrowserPoolURL != "" {
		pool = browsers.NewClient(cfg.BrowserPoolURL, logger)
	}

	roomHandler := handler.NewRoomHandler(roomSvc, store, pool, "")
	roomWS := handler.NewRoomWSHandler(h, coordinator,
		cfg.WSReadBufferSize, cfg.WSWriteBufferSize, cfg.WSSendQueueSize, cfg.WSMaxMessageSize, logger)
	health := handler.NewHealthHandler()

	r := router.New(roomHandler, roomWS, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:         cfg,
		srv:         srv,
		db:          db,
		store:       store,
		hub:         h,
		coordinator: coordinator,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server and the retention sweep, blocks until ctx is
// cancelled, then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	log.Printf("HTTP server listening on %s", a.srv.Addr)
	log.Printf("  Health:    http://%s:%s/health", host, a.cfg.HTTPPort)
	log.Printf("  Rooms:     http://%s:%s/rooms", host, a.cfg.HTTPPort)
	log.Printf("  WebSocket: ws://%s:%s/ws/rooms/:user_id", host, a.cfg.HTTPPort)

	go a.coordinator.RunCleanup(ctx, a.cfg.CleanupInterval)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.srv.Shutdown(shutdownCtx)
	a.hub.Close()
	if cerr := a.store.Close(); cerr != nil {
		a.logger.Warn("state store close failed", zap.Error(cerr))
	}
	_ = a.logger.Sync()
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
