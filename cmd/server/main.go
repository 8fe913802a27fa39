package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	deliveryhttp "traderoom-backend/internal/delivery/http"
	"traderoom-backend/internal/delivery/websocket"
	"traderoom-backend/internal/domain"
	"traderoom-backend/internal/infrastructure/db"
	"traderoom-backend/internal/infrastructure/fcm"
	"traderoom-backend/internal/infrastructure/pricefeed"
	"traderoom-backend/internal/infrastructure/traderoom"
	"traderoom-backend/internal/repository"
	"traderoom-backend/internal/telegram"
	"traderoom-backend/internal/usecase"

	"traderoom-backend/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Device token storage (Postgres when configured, in-memory otherwise)
	var tokenRepo domain.TokenRepository
	if cfg.Database.URL != "" {
		pool, err := db.NewPool(ctx, cfg.Database.URL, db.DefaultPoolConfig())
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrating database: %v", err)
		}
		tokenRepo = repository.NewPostgresTokenRepository(pool)
		log.Println("Using Postgres token repository")
	} else {
		tokenRepo = repository.NewInMemoryTokenRepository()
		log.Println("Using in-memory token repository")
	}

	// 2. Push channels
	var fcmClient *fcm.Client
	if cfg.FCM.Enabled {
		fcmClient, err = fcm.NewClient(cfg.FCM.CredentialsPath)
		if err != nil {
			log.Fatalf("initializing FCM: %v", err)
		}
	}
	var tgNotifier *telegram.Notifier
	if cfg.Telegram.Enabled {
		tgNotifier = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	// 3. Room API client and price feed
	roomClient := traderoom.NewClient(cfg.Room.APIBaseURL, cfg.Room.RequestTimeout)

	source := pricefeed.NewStreamSource(cfg.PriceFeed.URL, cfg.PriceFeed.ReconnectDelay)
	mux := pricefeed.NewMultiplexer(source)
	source.Bind(mux)
	go func() {
		if err := source.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("quote stream stopped: %v", err)
		}
	}()

	// 4. State containers
	room := cfg.Room.Slug
	alertFeed := usecase.NewAlertFeed(roomClient, room)
	ledger := usecase.NewPositionLedger(roomClient, mux, room, cfg.Room.ClosedDisplayLimit)
	stats := usecase.NewStatsSummary(roomClient, room, domain.Stats{})
	analytics := usecase.NewPerformanceAnalytics(roomClient, room)

	ledger.Attach()
	defer ledger.Detach()

	if err := alertFeed.Fetch(); err != nil {
		log.Printf("initial alert fetch: %v", err)
	}
	if cfg.Room.AlertAutoRefresh {
		alertFeed.StartAutoRefresh(cfg.Room.AlertRefreshEvery)
		defer alertFeed.StopAutoRefresh()
	}

	notifier := usecase.NewAlertNotifier(roomClient, alertFeed, room, fcmClient, tokenRepo, tgNotifier)
	refresher := usecase.NewRefresher(ledger, stats, analytics, notifier, cfg.Room.RefreshInterval)
	go refresher.Run(ctx)

	// 5. Delivery
	alertHandler := deliveryhttp.NewAlertHandler(alertFeed)
	tradeHandler := deliveryhttp.NewTradeHandler(ledger)
	statsHandler := deliveryhttp.NewStatsHandler(stats, analytics)
	tokenHandler := deliveryhttp.NewTokenHandler(tokenRepo)
	testHandler := deliveryhttp.NewTestHandler(fcmClient, tokenRepo)
	wsHandler := websocket.NewHandler(ledger, cfg.Server.PushInterval)

	serveMux := http.NewServeMux()
	serveMux.HandleFunc("/api/dashboard/alerts", alertHandler.HandleAlerts)
	serveMux.HandleFunc("/api/dashboard/alerts/refresh", alertHandler.HandleRefresh)
	serveMux.HandleFunc("/api/dashboard/positions", tradeHandler.HandlePositions)
	serveMux.HandleFunc("/api/dashboard/stats", statsHandler.HandleStats)
	serveMux.HandleFunc("/api/dashboard/analytics", statsHandler.HandleAnalytics)
	serveMux.HandleFunc("/api/admin/trades", tradeHandler.HandleCreate)
	serveMux.HandleFunc("/api/admin/trades/close", tradeHandler.HandleClose)
	serveMux.HandleFunc("/api/admin/trades/update", tradeHandler.HandleUpdate)
	serveMux.HandleFunc("/api/admin/trades/invalidate", tradeHandler.HandleInvalidate)
	serveMux.HandleFunc("/api/admin/trades/delete", tradeHandler.HandleDelete)
	serveMux.HandleFunc("/api/tokens/register", tokenHandler.HandleRegisterToken)
	serveMux.HandleFunc("/api/tokens/unregister", tokenHandler.HandleUnregisterToken)
	serveMux.HandleFunc("/api/test/notification", testHandler.SendTestNotification)
	serveMux.HandleFunc("/ws", wsHandler.Handle)
	serveMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: serveMux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("Server executing on %s (room %q)", cfg.Server.ListenAddr, room)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
