package routes

import (
	"context"

	"cafepos/configs"
	"cafepos/controllers"
	"cafepos/entity"
	"cafepos/middlewares"
	"cafepos/pkg/bonusrule"
	"cafepos/pkg/cache"
	"cafepos/pkg/events"
	"cafepos/repository"
	"cafepos/services"
	"cafepos/ws"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Options carries the optional infrastructure; nil fields fall back to no-ops.
type Options struct {
	Cache     cache.Cache
	Publisher events.Publisher
}

// RegisterRoutes wires repositories, services and controllers onto r. The points hub runs
// until ctx is cancelled.
func RegisterRoutes(ctx context.Context, r *gin.Engine, db *gorm.DB, cfg *configs.Config, opts Options) error {
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	cafeRepo := repository.NewCafeRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	ledgerRepo := repository.NewLoyaltyRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	engine, err := bonusrule.NewEngine()
	if err != nil {
		return errors.Wrap(err, "bonus rule engine")
	}

	// Services
	customerSvc := services.NewCustomerService(customerRepo, cafeRepo)
	hub := ws.NewPointsHub(customerSvc)
	go hub.Run(ctx)
	pub := events.Multi{opts.Publisher, hub}

	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	loyaltySvc := services.NewLoyaltyService(db, customerRepo, ledgerRepo, customerSvc, engine, pub, cfg.Loyalty)
	orderSvc := services.NewOrderService(db, orderRepo, cafeRepo, customerSvc, loyaltySvc)
	profileSvc := services.NewProfileService(customerRepo, orderRepo, profileRepo, opts.Cache, pub, customerSvc)
	catalogSvc := services.NewCatalogService(catalogRepo, customerSvc)

	// Controllers
	authCtrl := controllers.NewAuthController(authSvc)
	customerCtrl := controllers.NewCustomerController(customerSvc)
	orderCtrl := controllers.NewOrderController(orderSvc)
	loyaltyCtrl := controllers.NewLoyaltyController(loyaltySvc)
	profileCtrl := controllers.NewProfileController(profileSvc)
	catalogCtrl := controllers.NewCatalogController(catalogSvc)

	staff := []string{entity.RoleOwner, entity.RoleAdmin}

	// Auth (public)
	a := r.Group("/auth")
	{
		a.POST("/register", authCtrl.Register)
		a.POST("/login", authCtrl.Login)
		a.GET("/me", middlewares.AuthMiddleware(cfg.JWTSecret), authCtrl.Me)
	}

	// Public catalog
	r.GET("/cafes", catalogCtrl.ListCafes)
	r.GET("/cafes/:slug/menu", catalogCtrl.Menu)

	api := r.Group("/api", middlewares.AuthMiddleware(cfg.JWTSecret))

	// Catalog (owner/admin)
	api.POST("/cafes/:cafeId/products", middlewares.AuthMiddleware(cfg.JWTSecret, staff...), catalogCtrl.CreateProduct)
	api.PATCH("/products/:id", middlewares.AuthMiddleware(cfg.JWTSecret, staff...), catalogCtrl.UpdateProduct)

	// Customers
	api.POST("/customers", customerCtrl.Create)
	api.GET("/customers", middlewares.AuthMiddleware(cfg.JWTSecret, staff...), customerCtrl.List) // ?cafeId=

	// Orders
	orders := api.Group("/orders")
	{
		orders.POST("", orderCtrl.Create)
		orders.GET("", orderCtrl.List) // ?customerId=
		orders.GET("/:id", orderCtrl.Detail)
		orders.PATCH("/:id/status", middlewares.AuthMiddleware(cfg.JWTSecret, staff...), orderCtrl.UpdateStatus)
	}

	// Profile
	profile := api.Group("/profile")
	{
		profile.POST("/generate", profileCtrl.Generate)
		profile.GET("/:customerId", profileCtrl.Get)
	}

	// Loyalty
	l := api.Group("/loyalty")
	{
		l.GET("/points", loyaltyCtrl.Points)             // ?customerId=
		l.GET("/transactions", loyaltyCtrl.Transactions) // ?customerId=&limit=
		l.POST("/vouchers/redeem", loyaltyCtrl.RedeemVoucher)
	}
	ls := l.Group("", middlewares.AuthMiddleware(cfg.JWTSecret, staff...))
	{
		ls.POST("/bonus", loyaltyCtrl.Bonus)
		ls.POST("/vouchers/:code/use", loyaltyCtrl.UseVoucher)
		ls.GET("/rules", loyaltyCtrl.ListRules) // ?cafeId=
		ls.POST("/rules", loyaltyCtrl.CreateRule)
	}
	l.GET("/audit/:customerId", middlewares.AuthMiddleware(cfg.JWTSecret, entity.RoleAdmin), loyaltyCtrl.Audit)

	// Realtime
	r.GET("/ws/points", middlewares.WSAuthMiddleware(cfg.JWTSecret), hub.HandleWebSocket) // ?customerId=&token=

	return nil
}
