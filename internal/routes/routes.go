// Package routes defines the API routing configuration.
// It wires repositories, services and handlers together and
// registers every HTTP route with its middleware.
package routes

import (
	"amstapay/internal/config"
	"amstapay/internal/gateway"
	"amstapay/internal/handlers"
	"amstapay/internal/middleware"
	"amstapay/internal/repositories"
	"amstapay/internal/services/notification"
	"amstapay/internal/services/transaction"
	"amstapay/internal/services/wallet"
	"amstapay/internal/services/webhook"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, db *gorm.DB, log *zap.SugaredLogger) {
	// Initialize repositories
	walletRepo := repositories.NewWalletRepository(db)
	userRepo := repositories.NewUserRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)

	// Initialize services in dependency order
	walletService := wallet.NewService(
		walletRepo,
		repositories.CacheService,
		wallet.WalletConfig{},
		&wallet.NoopMetricsCollector{},
		log,
	)

	paystack := gateway.NewPaystackClient(gateway.PaystackConfig{
		SecretKey: config.GetEnv("PAYSTACK_SECRET_KEY", ""),
		BaseURL:   config.GetEnv("PAYSTACK_BASE_URL", ""),
	}, log)

	notifier := notification.NewService(log)

	transactionService := transaction.NewService(
		txnRepo,
		userRepo,
		walletService,
		paystack,
		notifier,
		transaction.Config{},
		log,
	)

	webhookService := webhook.NewService(
		config.GetEnv("PAYSTACK_SECRET_KEY", "amstapay"),
		txnRepo,
		walletService,
		notifier,
		log,
	)

	// Initialize handlers
	walletHandler := handlers.NewWalletHandler(walletService, transactionService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, paystack)
	billsHandler := handlers.NewBillsHandler(transactionService)
	webhookHandler := handlers.NewWebhookHandler(webhookService, log)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to AmstaPay API",
			"version": "1.0.0",
			"docs":    "/api",
		})
	})

	api := app.Group("/api")

	// Provider callbacks are authenticated by signature, not by token
	api.Post("/webhook/paystack", webhookHandler.HandlePaystack)

	// Protected routes with auth middleware
	authMiddleware := middleware.NewAuthMiddleware()
	protected := api.Use(authMiddleware.Handler)

	// Wallet routes
	walletGroup := protected.Group("/wallet")
	walletGroup.Get("/", walletHandler.GetWallet)
	walletGroup.Get("/ledger", walletHandler.GetLedger)
	walletGroup.Post("/fund", walletHandler.FundWallet)
	walletGroup.Post("/withdraw", walletHandler.WithdrawWallet)
	walletGroup.Post("/transfer", walletHandler.TransferWallet)

	// Transaction routes
	protected.Get("/transactions", transactionHandler.ListTransactions)
	protected.Get("/transactions/:reference", transactionHandler.GetTransaction)
	protected.Post("/transfer/bank", transactionHandler.BankTransfer)
	protected.Get("/transfer/resolve", transactionHandler.ResolveAccount)

	// QR payments
	protected.Post("/payment/qr", transactionHandler.SendQRPayment)

	// Bill payment routes
	bills := protected.Group("/bills")
	bills.Post("/airtime", billsHandler.BuyAirtime)
	bills.Post("/data", billsHandler.BuyData)
	bills.Post("/cable", billsHandler.PayCable)
	bills.Post("/electricity", billsHandler.PayElectricity)
}
