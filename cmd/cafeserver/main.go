package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cafehub/internal/config"
	"cafehub/internal/database"
	"cafehub/internal/handler"
	"cafehub/internal/lifecycle"
	"cafehub/internal/model"
	"cafehub/internal/mw"
	"cafehub/internal/notify"
	"cafehub/internal/payment"
	"cafehub/internal/printing"
	"cafehub/internal/service"
	"cafehub/internal/worker"
)

func main() {
	cfg := config.New()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(context.Background(), db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	amqpConn, err := notify.Connect(cfg.AMQPURI)
	if err != nil {
		slog.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	// Notifier
	hub := notify.NewHub()
	publisher := notify.NewPublisher(amqpConn)
	consumer := notify.NewConsumer(amqpConn, hub)

	// Services
	gateway := payment.NewClient(cfg.RazorpayURL, cfg.RazorpayKeyID, cfg.RazorpaySecret)
	jobs := printing.NewJobs(db)
	auditSvc := service.NewAuditService(db)
	authSvc := service.NewAuthService(db)
	otp := service.NewMemoryOTP(5 * time.Minute)
	catalogSvc := service.NewCatalogService(db, auditSvc)
	tableSvc := service.NewTableService(db, auditSvc)
	loyaltySvc := service.NewLoyaltyService(db)
	refundSvc := service.NewRefundService(db, auditSvc)
	wastageSvc := service.NewWastageService(db, auditSvc)
	messageSvc := service.NewMessageService(db)
	campaignSvc := service.NewCampaignService(db, auditSvc)
	dashboardSvc := service.NewDashboardService(db)

	ctrl := lifecycle.NewController(db, publisher, &printQueue{jobs: jobs, publisher: publisher}, gateway)

	// Workers
	dispatcher := worker.NewDispatcher(amqpConn, jobs, ctrl, publisher, cfg.PrinterAddress)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/api/menu", handler.MenuHandler(catalogSvc))
	r.Get("/api/tables/qr/{slug}", handler.TableByQRHandler(tableSvc))
	r.Get("/api/campaigns/active", handler.ActiveCampaignsHandler(campaignSvc))
	r.Post("/api/auth/login", handler.LoginHandler(authSvc, cfg.JWTSecret))
	r.Post("/api/auth/otp", handler.OTPSendHandler(otp))
	r.Post("/api/auth/otp/verify", handler.OTPVerifyHandler(otp, cfg.JWTSecret))
	r.Get("/api/events", handler.EventsHandler(hub))
	r.Post("/api/orders", handler.CreateOrderHandler(ctrl))
	r.Get("/api/orders/{id}", handler.GetOrderHandler(ctrl))
	r.Post("/api/orders/{id}/checkout", handler.CheckoutHandler(ctrl, gateway))
	r.Post("/api/orders/{id}/payment", handler.PaymentHandler(ctrl))

	// Cashier routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Auth(cfg.JWTSecret))
		r.Use(mw.RequireRole(model.RoleCashier))

		r.Get("/api/orders", handler.ListOrdersHandler(ctrl))
		r.Post("/api/orders/{id}/confirm", handler.ConfirmOrderHandler(ctrl))
		r.Post("/api/orders/{id}/reject", handler.RejectOrderHandler(ctrl))
		r.Post("/api/orders/{id}/serve", handler.ServeOrderHandler(ctrl))

		r.Get("/api/printer/status/{orderID}", handler.PrinterStatusHandler(jobs))
		r.Post("/api/printer/retry/{orderID}", handler.PrinterRetryHandler(jobs, &printQueue{jobs: jobs, publisher: publisher}))

		r.Post("/api/tables", handler.CreateTableHandler(tableSvc))
		r.Get("/api/tables", handler.ListTablesHandler(tableSvc))
		r.Post("/api/tables/{id}/status", handler.TableStatusHandler(tableSvc))
		r.Post("/api/tables/{id}/reset", handler.TableResetHandler(tableSvc))

		r.Post("/api/refunds", handler.RequestRefundHandler(refundSvc))
		r.Post("/api/refunds/{id}/decide", handler.DecideRefundHandler(refundSvc))
		r.Get("/api/refunds", handler.ListRefundsHandler(refundSvc))
		r.Post("/api/wastage", handler.RecordWastageHandler(wastageSvc))
		r.Get("/api/wastage", handler.ListWastageHandler(wastageSvc))
		r.Get("/api/audit", handler.ListAuditHandler(auditSvc))
		r.Post("/api/messages", handler.SendMessageHandler(messageSvc))
		r.Get("/api/messages", handler.InboxHandler(messageSvc))
		r.Post("/api/messages/{id}/read", handler.MarkReadHandler(messageSvc))
		r.Get("/api/customers/{phone}/loyalty", handler.LoyaltyHandler(loyaltySvc))
		r.Post("/api/loyalty/redeem", handler.RedeemHandler(loyaltySvc, auditSvc))
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Auth(cfg.JWTSecret))
		r.Use(mw.RequireRole(model.RoleAdmin))

		r.Get("/api/products", handler.ListProductsHandler(catalogSvc))
		r.Post("/api/products", handler.CreateProductHandler(catalogSvc))
		r.Put("/api/products/{id}", handler.UpdateProductHandler(catalogSvc))
		r.Post("/api/products/{id}/stock", handler.StockHandler(catalogSvc))
		r.Get("/api/campaigns", handler.ListCampaignsHandler(campaignSvc))
		r.Post("/api/campaigns", handler.CreateCampaignHandler(campaignSvc))
		r.Put("/api/campaigns/{id}", handler.UpdateCampaignHandler(campaignSvc))
		r.Get("/api/admin/dashboard", handler.DashboardHandler(dashboardSvc))
		r.Post("/api/admin/cashiers", handler.RegisterCashierHandler(authSvc))
	})

	srv := &http.Server{
		Addr:        cfg.RunAddress,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: the SSE stream stays open indefinitely.
	}

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Start(ctx)
	go func() {
		if err := consumer.Run(ctx); err != nil {
			slog.Error("event consumer failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop dispatcher and consumer
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}

// printQueue couples job row creation with queue publication so a
// ticket is never enqueued without its bookkeeping row.
type printQueue struct {
	jobs      *printing.Jobs
	publisher *notify.Publisher
}

func (q *printQueue) EnqueuePrint(ctx context.Context, orderID string) error {
	if err := q.jobs.Create(ctx, orderID); err != nil {
		return err
	}
	return q.publisher.EnqueuePrint(ctx, orderID)
}
