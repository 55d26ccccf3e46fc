package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/kavehjm/barberdesk/internal/config"
	"github.com/kavehjm/barberdesk/internal/database"
	"github.com/kavehjm/barberdesk/internal/handler"
	"github.com/kavehjm/barberdesk/internal/queue"
	"github.com/kavehjm/barberdesk/internal/repository"
	"github.com/kavehjm/barberdesk/internal/router"
	"github.com/kavehjm/barberdesk/internal/service"
)

func main() {
	// Missing .env is fine; containers inject the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and catalog cache disabled")
	}

	tenants := repository.NewTenantRepo(db)
	users := repository.NewUserRepo(db)
	profiles := repository.NewProfileRepo(db)
	services := repository.NewServiceRepo(db)
	bookings := repository.NewBookingRepo(db)
	transactions := repository.NewTransactionRepo(db)
	expenses := repository.NewExpenseRepo(db)
	tokens := repository.NewTokenRepo(db)
	audit := repository.NewAuditRepo(db)

	store := service.NewMySQLStore(db, bookings, services, profiles, transactions, audit)
	notifier := service.NewAMQPNotifier(cfg.AMQPURL)
	bookingSvc := service.NewBookingService(store, notifier, cfg.CancelBuffer)
	settlementSvc := service.NewSettlementService(store, notifier)

	go queue.StartLifecycleConsumer(cfg.AMQPURL, service.LifecycleQueueName)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e,
		router.Handlers{
			Auth:      handler.NewAuthHandler(cfg, users, profiles, tenants, tokens, audit),
			Booking:   handler.NewBookingHandler(bookingSvc, bookings),
			POS:       handler.NewPOSHandler(settlementSvc, transactions, audit),
			Admin:     handler.NewAdminHandler(tenants, profiles, services, audit),
			Access:    handler.NewAccessHandler(tenants),
			Public:    handler.NewPublicHandler(services, profiles),
			Dashboard: handler.NewDashboardHandler(bookings, transactions, expenses),
		},
		router.Deps{
			Cfg:     cfg,
			Tenants: tenants,
			Kiosk:   tenants,
			Tokens:  tokens,
			Profile: profiles,
			Redis:   rdb,
		})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
