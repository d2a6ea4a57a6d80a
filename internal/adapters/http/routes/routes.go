package routes

import (
	"lendstock/internal/adapters/http/handlers"
	"lendstock/internal/adapters/http/middleware"
	"lendstock/internal/adapters/persistence/repositories"
	"lendstock/internal/config"
	"lendstock/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	repos := repositories.NewRepos(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize services
	inventoryService := services.NewInventoryService()
	borrowerService := services.NewBorrowerService()
	voucherGenerator := services.NewFileVoucherGenerator(cfg.Voucher.Dir)
	loanService := services.NewLoanService(uow, repos, inventoryService, borrowerService, voucherGenerator)
	reconcileService := services.NewReconcileService(repos)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	loanHandler := handlers.NewLoanHandler(loanService)
	itemHandler := handlers.NewItemHandler(repos, inventoryService)
	adminHandler := handlers.NewAdminHandler(reconcileService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	loanRoutes := apiV1.Group("/loans")
	setupLoanRoutes(loanRoutes, loanHandler)

	itemRoutes := apiV1.Group("/items")
	setupItemRoutes(itemRoutes, itemHandler)

	adminRoutes := apiV1.Group("/admin/reconcile")
	adminRoutes.Use(middleware.AdminRateLimiter())
	setupReconcileRoutes(adminRoutes, adminHandler)
}

// setupLoanRoutes configures loan lifecycle routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
	router.Put("/:id", handler.Update)
	router.Post("/:id/return", handler.Return)
	router.Post("/:id/items/:item_id/return", handler.ReturnItem)
	router.Post("/:id/cancel", handler.Cancel)
	router.Delete("/:id", handler.Delete)
	router.Post("/:id/restore", handler.Restore)
}

// setupItemRoutes configures inventory item routes
func setupItemRoutes(router fiber.Router, handler *handlers.ItemHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
	router.Put("/:id/status", handler.UpdateStatus)
}

// setupReconcileRoutes configures the manual reconciliation sweeps
func setupReconcileRoutes(router fiber.Router, handler *handlers.AdminHandler) {
	router.Post("/normalize-case", handler.NormalizeCase)
	router.Post("/sync-status", handler.SyncStatus)
	router.Post("/fix-status", handler.FixStatus)
	router.Post("/mark-overdue", handler.MarkOverdue)
}
