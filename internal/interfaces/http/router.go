package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Sucursales-api/internal/application/auth"
	"github.com/jhoicas/Sucursales-api/internal/application/catalog"
	"github.com/jhoicas/Sucursales-api/internal/application/documents"
	"github.com/jhoicas/Sucursales-api/internal/application/inventory"
	"github.com/jhoicas/Sucursales-api/internal/application/ledger"
	"github.com/jhoicas/Sucursales-api/internal/application/transfer"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerSvc    *ledger.Service
	TransferEng  *transfer.Engine
	DocumentsSvc *documents.Service
	StockUC      *inventory.StockQueryUseCase
	BranchUC     *catalog.BranchUseCase
	ProductUC    *catalog.ProductUseCase
	AuthUC       *auth.UseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	manager := RequireRole(entity.RoleAdmin, entity.RoleSupervisor)

	// Branches (protegido; alta solo para admin)
	branches := protected.Group("/branches")
	branchHandler := NewBranchHandler(deps.BranchUC)
	branches.Post("/", RequireRole(entity.RoleAdmin), branchHandler.Create)
	branches.Get("/", branchHandler.List)
	branches.Get("/:id", branchHandler.GetByID)

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", manager, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Ledger: log de movimientos y posiciones (protegido)
	ledgerGroup := protected.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)
	ledgerGroup.Post("/movements", manager, ledgerHandler.PostMovement)
	ledgerGroup.Get("/movements", ledgerHandler.ListMovements)
	ledgerGroup.Get("/stock/:branch_id/:product_id", ledgerHandler.GetStock)

	// Stock por sucursal y umbrales (protegido)
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.StockUC)
	stock.Get("/low", stockHandler.LowStock) // antes de /:branch_id
	stock.Get("/:branch_id", stockHandler.ListByBranch)
	stock.Patch("/:branch_id/:product_id/thresholds", manager, stockHandler.UpdateThresholds)
	stock.Delete("/:branch_id/:product_id", RequireRole(entity.RoleAdmin), stockHandler.Deactivate)

	// Transferencias entre sucursales (protegido)
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferEng)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.Get)
	transfers.Post("/:id/approve", manager, transferHandler.Approve)
	transfers.Post("/:id/dispatch", manager, transferHandler.Dispatch)
	transfers.Post("/:id/lines/:line_id/receive", transferHandler.ReceiveLine)
	transfers.Post("/:id/cancel", manager, transferHandler.Cancel)

	// Documentos comerciales que afectan stock (protegido)
	docs := protected.Group("/documents")
	documentsHandler := NewDocumentsHandler(deps.DocumentsSvc)
	docs.Post("/sales", documentsHandler.IssueSale)
	docs.Post("/sales/void", manager, documentsHandler.VoidSale)
	docs.Post("/purchases", manager, documentsHandler.ReceivePurchase)
	docs.Post("/returns", manager, documentsHandler.ApproveReturn)
	docs.Post("/adjustments", manager, documentsHandler.Adjust)
}
