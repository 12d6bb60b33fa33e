package api

import (
	"net/http"

	"github.com/denizolgu/chancepool/internal/api/handler"
	"github.com/denizolgu/chancepool/internal/api/middleware"
	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/repository"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/denizolgu/chancepool/internal/ws"
	"github.com/gin-gonic/gin"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc     *service.AuthService
	PoolSvc     *service.PoolService
	WagerSvc    *service.WagerService
	SettlerSvc  *service.SettlerService
	AccountRepo *repository.AccountRepository
	Hub         *ws.Hub
	Cfg         *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	poolH := handler.NewPoolHandler(deps.PoolSvc, deps.Cfg)
	wagerH := handler.NewWagerHandler(deps.WagerSvc, deps.Cfg)
	settlerH := handler.NewSettlerHandler(deps.SettlerSvc)
	accountH := handler.NewAccountHandler(deps.AccountRepo, deps.AuthSvc, deps.Cfg)

	// ── JWT middleware (shared) ───────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware(10)  // token minting
	writeRL := middleware.RateLimitMiddleware(30) // money-moving endpoints

	api := r.Group("/api")
	{
		// ── Auth (public, dev only, strict rate limit) ───────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/token", accountH.IssueToken)
		}

		// ── Public queries ───────────────────────────────────────────────────
		api.GET("/pool", poolH.Summary)
		api.GET("/wagers", wagerH.Pending)
		api.GET("/settlers", settlerH.List)

		// ── Authenticated routes ──────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(jwtMW)
		{
			// Account
			account := authed.Group("/account")
			{
				account.GET("/balance", accountH.Balance)
				account.POST("/faucet", accountH.Faucet)
			}

			// Pool
			pool := authed.Group("/pool")
			pool.Use(writeRL)
			{
				pool.POST("/deposit", poolH.Deposit)
				pool.POST("/withdraw", poolH.Withdraw)
				pool.POST("/transfer", poolH.TransferShares)
				pool.GET("/shares", poolH.MyShares)
			}

			// Wagers
			wagers := authed.Group("/wagers")
			wagers.Use(writeRL)
			{
				wagers.POST("", wagerH.PlaceBet)
				wagers.GET("/my", wagerH.MyPending)
				wagers.POST("/settle", wagerH.Settle)
			}

			// Settler roster
			settlers := authed.Group("/settlers")
			{
				settlers.POST("", settlerH.Add)
				settlers.DELETE("/:id", settlerH.Remove)
			}
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In development all origins are allowed; in production only configured origins.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := map[string]bool{}
			for _, o := range cfg.Server.AllowedOrigins {
				allowed[o] = true
			}
			if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
