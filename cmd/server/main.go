package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/handler"
	"marketplace-backend/internal/metrics"
	"marketplace-backend/internal/payment/central"
	"marketplace-backend/internal/payment/click"
	"marketplace-backend/internal/payment/payme"
	"marketplace-backend/internal/ports"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/scheduler"
	"marketplace-backend/internal/server"
	"marketplace-backend/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	clock := ports.SystemClock{}
	if cfg.ClickTenants.Len() == 0 {
		logger.Warn("no click tenants configured; click webhooks will answer service not found")
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	ownerRepo := repository.OwnerRepository{DB: pg}
	sectionRepo := repository.ReferenceRepository{DB: pg, Table: repository.TableSections}
	saleTypeRepo := repository.ReferenceRepository{DB: pg, Table: repository.TableSaleTypes}
	storeRepo := repository.StoreRepository{DB: pg}
	stallRepo := repository.StallRepository{DB: pg}
	leaseRepo := repository.LeaseRepository{DB: pg}
	attendanceRepo := repository.AttendanceRepository{DB: pg}
	txRepo := repository.TransactionRepository{DB: pg}
	clickRepo := repository.ClickTransactionRepository{DB: pg}
	ledger := repository.Ledger{Transactions: txRepo, Attendance: attendanceRepo, Location: cfg.Location}

	// services
	debt := billing.DebtAggregator{Store: ledger, Workers: cfg.DebtWorkers, Location: cfg.Location}
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger}
	leaseSvc := service.LeaseService{
		Leases:       leaseRepo,
		Owners:       ownerRepo,
		Stalls:       stallRepo,
		Attendance:   attendanceRepo,
		Transactions: txRepo,
		Debt:         debt,
		Clock:        clock,
		Location:     cfg.Location,
		Logger:       logger,
	}
	paymentSvc := service.PaymentService{
		Leases:       leaseRepo,
		Owners:       ownerRepo,
		Attendance:   attendanceRepo,
		Transactions: txRepo,
		Checkout:     central.NewClient(cfg.CentralPaymentURL, cfg.CentralPaymentSecret, cfg.TenantID),
		Clock:        clock,
		Location:     cfg.Location,
		Logger:       logger,
		Metrics:      m,
	}
	reportSvc := service.ReportService{
		Leases:   leaseRepo,
		Debt:     debt,
		Clock:    clock,
		Location: cfg.Location,
		Logger:   logger,
		Metrics:  m,
	}
	gateway := click.Gateway{
		Tenants:       cfg.ClickTenants,
		LocalTenantID: cfg.TenantID,
		Store:         clickRepo,
		Client:        &http.Client{Timeout: cfg.ClickForwardTimeout},
		Timeout:       cfg.ClickForwardTimeout,
		Logger:        logger,
		Metrics:       m,
	}
	paymeSvc := payme.Service{Store: txRepo, Secret: cfg.WebhookSecret, Logger: logger, Metrics: m}

	// background jobs
	sched := scheduler.New(scheduler.Jobs{Leases: leaseSvc, Metrics: m, Logger: logger}, cfg.LeaseExpirySchedule, cfg.Location, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "err", err)
		os.Exit(1)
	}
	defer func() { <-sched.Stop().Done() }()

	router := server.NewRouter(cfg, logger, server.Handlers{
		Health:       handler.HealthHandler{DB: pg},
		Auth:         handler.AuthHandler{Service: &authSvc},
		Owners:       handler.OwnerHandler{Repo: ownerRepo},
		Sections:     handler.ReferenceHandler{Path: "/sections", Repo: sectionRepo},
		SaleTypes:    handler.ReferenceHandler{Path: "/sale-types", Repo: saleTypeRepo},
		Stores:       handler.StoreHandler{Repo: storeRepo},
		Stalls:       handler.StallHandler{Repo: stallRepo},
		Leases:       handler.LeaseHandler{Service: &leaseSvc},
		Attendance:   handler.AttendanceHandler{Service: &leaseSvc, Location: cfg.Location},
		Transactions: handler.TransactionHandler{Service: &paymentSvc, Location: cfg.Location},
		Payments:     handler.PaymentHandler{Service: &paymentSvc},
		Webhooks:     handler.WebhookHandler{Click: gateway, Payme: paymeSvc, Logger: logger},
		Dashboard:    handler.DashboardHandler{Reports: &reportSvc},
		Reports:      handler.ReportHandler{Reports: &reportSvc, Location: cfg.Location},
	})

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
