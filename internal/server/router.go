// Package server assembles the HTTP surface of the ledger.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"finledger/internal/handlers"
	"finledger/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Accounts     *handlers.AccountHandler
	Categories   *handlers.CategoryHandler
	Transactions *handlers.TransactionHandler
	Budgets      *handlers.BudgetHandler
	Reconcile    *handlers.ReconcileHandler
}

// Options configures authentication and optional routes. Owners, when set,
// provisions a users row for each authenticated subject.
type Options struct {
	JWTSecret string
	OpsAPIKey string
	Swagger   bool
	Owners    middleware.OwnerProvisioner
}

// NewRouter builds the gin engine with middleware and all /api/v1 routes.
func NewRouter(h Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	ops := v1.Group("/ops")
	ops.Use(middleware.OpsAuthMiddleware(opts.OpsAPIKey))
	ops.POST("/reconcile", h.Reconcile.RunReconciliation)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(opts.JWTSecret))
	if opts.Owners != nil {
		protected.Use(middleware.ProvisionOwner(opts.Owners))
	}

	accounts := protected.Group("/accounts")
	accounts.POST("", h.Accounts.CreateAccount)
	accounts.GET("", h.Accounts.GetUserAccounts)
	accounts.GET("/:id", h.Accounts.GetAccountByID)
	accounts.PUT("/:id", h.Accounts.UpdateAccount)
	accounts.POST("/:id/reconcile", h.Reconcile.ReconcileAccount)

	categories := protected.Group("/categories")
	categories.POST("", h.Categories.CreateCategory)
	categories.GET("", h.Categories.ListCategories)
	categories.GET("/:id", h.Categories.GetCategoryByID)

	tags := protected.Group("/tags")
	tags.POST("", h.Categories.CreateTag)
	tags.GET("", h.Categories.ListTags)

	transactions := protected.Group("/transactions")
	transactions.POST("", h.Transactions.CreateTransaction)
	transactions.GET("", h.Transactions.ListTransactions)
	transactions.GET("/:id", h.Transactions.GetTransactionByID)
	transactions.PUT("/:id", h.Transactions.UpdateTransaction)
	transactions.DELETE("/:id", h.Transactions.DeleteTransaction)

	periods := protected.Group("/budget-periods")
	periods.GET("/:year", h.Budgets.ListBudgetPeriods)
	periods.GET("/:year/:month", h.Budgets.GetBudgetPeriod)
	periods.POST("/:year/:month/reconcile", h.Budgets.ReconcileBudgetPeriod)
	periods.PUT("/:year/:month/savings-goal", h.Budgets.UpdateSavingsGoal)

	protected.GET("/summaries/:year/:month", h.Budgets.GetMonthlySummary)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
