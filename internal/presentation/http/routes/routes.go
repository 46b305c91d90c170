package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/config"
	domainRepo "github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/internal/presentation/http/handler"
	"github.com/sangkips/billdesk/internal/presentation/http/middleware"
	"github.com/sangkips/billdesk/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Health    *handler.HealthHandler
	Composer  *handler.ComposerHandler
	Customer  *handler.CustomerHandler
	Product   *handler.ProductHandler
	Bill      *handler.BillHandler
	Dashboard *handler.DashboardHandler
	Printer   *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Tokens          *utils.SessionTokenManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	// RateLimiter is optional; nil disables rate limiting
	RateLimiter *middleware.ClientRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}
	v1.GET("/health", h.Health.Check)

	registerComposerRoutes(v1, h, deps)
	registerCatalogRoutes(v1, h)
	registerBillRoutes(v1, h)

	v1.GET("/dashboard", h.Dashboard.GetStats)
	v1.GET("/printer/status", h.Printer.GetStatus)

	return router
}

func registerComposerRoutes(rg *gin.RouterGroup, h *Handlers, deps *Deps) {
	rg.POST("/composer/sessions", h.Composer.OpenSession)

	composer := rg.Group("/composer")
	composer.Use(middleware.SessionMiddleware(deps.Tokens))
	{
		composer.DELETE("/sessions", h.Composer.CloseSession)

		composer.GET("/draft", h.Composer.GetDraft)
		composer.DELETE("/draft", h.Composer.Discard)

		composer.POST("/items", h.Composer.AddItem)
		composer.PUT("/items/:product_id/quantity", h.Composer.SetQuantity)
		composer.PUT("/items/:product_id/price", h.Composer.SetUnitPrice)
		composer.DELETE("/items/:product_id", h.Composer.RemoveItem)

		composer.PUT("/customer", h.Composer.SelectCustomer)
		composer.PUT("/payment-method", h.Composer.SetPaymentMethod)
		composer.PUT("/tax", h.Composer.SetTax)
		composer.PUT("/discount", h.Composer.SetDiscount)

		composer.POST("/submit", middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
			TTL:  deps.Cfg.Composer.IdempotencyTTL,
		}), h.Composer.Submit)
	}
}

func registerCatalogRoutes(rg *gin.RouterGroup, h *Handlers) {
	customers := rg.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
	}

	products := rg.Group("/products")
	{
		products.GET("", h.Product.List)
		products.POST("", h.Product.Create)
		products.GET("/categories", h.Product.Categories)
		products.GET("/:id", h.Product.Get)
	}
}

func registerBillRoutes(rg *gin.RouterGroup, h *Handlers) {
	bills := rg.Group("/bills")
	{
		bills.GET("", h.Bill.List)
		bills.GET("/number/:number", h.Bill.GetByNumber)
		bills.GET("/:id", h.Bill.Get)
		bills.GET("/:id/receipt", h.Printer.PreviewReceipt)
		bills.POST("/:id/print", h.Printer.PrintReceipt)
	}
}
