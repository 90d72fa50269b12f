// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"fueldepot/internal/domain/auth"
	"fueldepot/internal/domain/closing"
	"fueldepot/internal/domain/documents"
	"fueldepot/internal/domain/ledger"
	"fueldepot/internal/domain/reports"
	"fueldepot/internal/domain/shifts"
	"fueldepot/internal/infrastructure/http/v1/handlers"
	"fueldepot/internal/infrastructure/http/v1/middleware"
	"fueldepot/internal/infrastructure/storage/postgres"
	"fueldepot/internal/infrastructure/storage/postgres/catalog_repo"
	"fueldepot/internal/infrastructure/storage/postgres/closing_repo"
	"fueldepot/internal/infrastructure/storage/postgres/document_repo"
	"fueldepot/internal/infrastructure/storage/postgres/ledger_repo"
	"fueldepot/internal/infrastructure/storage/postgres/shift_repo"
	"fueldepot/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (health checks).
	Pool *postgres.Pool

	// TxManager carries transactions through context.
	TxManager *postgres.TxManager

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for token validation.
	JWTValidator middleware.JWTValidator

	// AuthService for the login endpoint.
	AuthService *auth.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// --- Repositories ---
	storeRepo := catalog_repo.NewStoreRepo(cfg.TxManager)
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(cfg.TxManager)
	tankRepo := catalog_repo.NewTankRepo(cfg.TxManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(cfg.TxManager)
	closingRepo := closing_repo.NewClosingRepo(cfg.TxManager)
	lossConfigRepo := closing_repo.NewLossConfigRepo(cfg.TxManager)
	shiftRepo := shift_repo.NewShiftRepo(cfg.TxManager)
	documentRepo := document_repo.NewDocumentRepo(cfg.TxManager)

	auditService, err := postgres.NewAuditService(cfg.TxManager)
	if err != nil {
		return nil, err
	}

	// --- Domain services ---
	calculator := ledger.NewCalculator(ledgerRepo, tankRepo, warehouseRepo)
	lossConfigService := closing.NewLossConfigService(lossConfigRepo)
	closingEngine := closing.NewEngine(
		closingRepo,
		lossConfigService,
		calculator,
		storeRepo,
		warehouseRepo,
		tankRepo,
		productRepo,
		cfg.TxManager,
	)
	reporter := reports.NewReporter(
		closingRepo,
		ledgerRepo,
		calculator,
		storeRepo,
		tankRepo,
		productRepo,
	)
	documentService := documents.NewService(
		documentRepo,
		ledgerRepo,
		calculator,
		tankRepo,
		productRepo,
		cfg.TxManager,
	)
	shiftCloser := shifts.NewCloser(shiftRepo, ledgerRepo, cfg.TxManager)
	backfiller := shifts.NewBackfiller(
		shiftRepo,
		warehouseRepo,
		productRepo,
		tankRepo,
		ledgerRepo,
	)

	// --- Handlers ---
	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	catalogHandler := handlers.NewCatalogHandler(base, storeRepo, productRepo, warehouseRepo, tankRepo)
	stockHandler := handlers.NewStockHandler(base, calculator)
	closingHandler := handlers.NewClosingHandler(base, closingEngine, auditService)
	lossConfigHandler := handlers.NewLossConfigHandler(base, lossConfigService)
	reportsHandler := handlers.NewReportsHandler(base, reporter)
	petroleumHandler := handlers.NewPetroleumHandler(base)
	documentHandler := handlers.NewDocumentHandler(base, documentService, auditService)
	shiftHandler := handlers.NewShiftHandler(base, shiftRepo, shiftCloser, backfiller)
	auditHandler := handlers.NewAuditHandler(base, auditService)

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		// Public auth endpoint
		apiV1.POST("/auth/login", authHandler.Login)

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		protected.POST("/auth/register", middleware.RequireRole(auth.RoleAdmin), authHandler.Register)

		catalogs := protected.Group("/catalog")
		{
			catalogs.POST("/stores", catalogHandler.CreateStore)
			catalogs.GET("/stores", catalogHandler.ListStores)
			catalogs.GET("/stores/:id", catalogHandler.GetStore)

			catalogs.POST("/products", catalogHandler.CreateProduct)
			catalogs.GET("/products", catalogHandler.ListProducts)
			catalogs.GET("/products/:id", catalogHandler.GetProduct)

			catalogs.POST("/warehouses", catalogHandler.CreateWarehouse)
			catalogs.GET("/warehouses", catalogHandler.ListWarehouses)
			catalogs.GET("/warehouses/:id", catalogHandler.GetWarehouse)

			catalogs.POST("/tanks", catalogHandler.CreateTank)
			catalogs.GET("/tanks", catalogHandler.ListTanks)
			catalogs.GET("/tanks/:id", catalogHandler.GetTank)
			catalogs.PUT("/tanks/:id/baseline", middleware.RequireRole(auth.RoleAdmin), catalogHandler.UpdateTankBaseline)
		}

		stock := protected.Group("/stock")
		{
			stock.GET("/tanks/:id/balance", stockHandler.GetTankBalance)
			stock.GET("/tanks/:id/can-export", stockHandler.CheckExport)
			stock.GET("/tanks/:id/capacity-check", stockHandler.CheckCapacity)
			stock.GET("/stores/:id/tanks", stockHandler.GetStoreTankStock)
			stock.GET("/warehouses/:id", stockHandler.GetWarehouseStock)
		}

		closings := protected.Group("/closings")
		{
			closings.POST("/preview", closingHandler.Preview)
			closings.POST("", closingHandler.Execute)
			closings.DELETE("", middleware.RequireRole(auth.RoleAdmin), closingHandler.Delete)
			closings.GET("/stores/:id", closingHandler.ListByStore)
			closings.GET("/stores/:id/periods", closingHandler.ListPeriods)
		}

		lossConfigs := protected.Group("/loss-configs")
		{
			lossConfigs.POST("", middleware.RequireRole(auth.RoleAdmin), lossConfigHandler.Create)
			lossConfigs.GET("", lossConfigHandler.List)
			lossConfigs.GET("/:id", lossConfigHandler.Get)
			lossConfigs.PUT("/:id", middleware.RequireRole(auth.RoleAdmin), lossConfigHandler.Update)
			lossConfigs.DELETE("/:id", middleware.RequireRole(auth.RoleAdmin), lossConfigHandler.Delete)
		}

		reportsGroup := protected.Group("/reports")
		{
			reportsGroup.GET("/stores/:id/inventory", reportsHandler.GetSegmentedReport)
		}

		petroleumGroup := protected.Group("/petroleum")
		{
			petroleumGroup.POST("/compartment", petroleumHandler.CalculateCompartment)
			petroleumGroup.POST("/document", petroleumHandler.CalculateDocument)
		}

		docs := protected.Group("/documents")
		{
			docs.POST("", documentHandler.Create)
			docs.GET("", documentHandler.List)
			docs.GET("/:id", documentHandler.Get)
			docs.POST("/:id/reverse", documentHandler.Reverse)
		}

		protected.POST("/truck-receipts", documentHandler.CreateTruckReceipt)

		shiftsGroup := protected.Group("/shifts")
		{
			shiftsGroup.GET("", shiftHandler.ListByStore)
			shiftsGroup.GET("/:id", shiftHandler.Get)
			shiftsGroup.POST("/:id/close", shiftHandler.Close)
		}

		protected.POST("/backfill/opening-stock", middleware.RequireRole(auth.RoleAdmin), shiftHandler.Backfill)

		protected.GET("/audit/:entityType/:id", middleware.RequireRole(auth.RoleAdmin), auditHandler.History)
	}

	return router, nil
}
