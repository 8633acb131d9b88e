package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tours-service/config"
	"tours-service/metrics"
	"tours-service/middleware"
	"tours-service/models"
	"tours-service/query"
	"tours-service/services"
	"tours-service/tracing"
)

type Deps struct {
	Config  *config.Config
	Log     *slog.Logger
	Metrics *metrics.Registry
	Auth    *services.AuthService
	Users   *services.UserService
	Tours   *services.TourService
	Reviews *services.ReviewService
}

func queryOptions(cfg config.QueryConfig, schema query.Schema) query.Options {
	opts := query.DefaultOptions(schema)
	if cfg.DefaultLimit > 0 {
		opts.DefaultLimit = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 {
		opts.MaxLimit = cfg.MaxLimit
	}
	opts.LegacyLTE = cfg.LegacyLTE
	return opts
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	return cc
}

// NewRouter builds the gin engine with every /api/v1 route.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewRegistry()
	}

	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	r.Use(
		middleware.RequestID(d.Log),
		middleware.AccessLog(d.Log),
		middleware.Metrics(d.Metrics),
		middleware.Trace(tracing.Tracer()),
		middleware.ErrorHandler(d.Log, !cfg.Production()),
		middleware.Recovery(),
		cors.New(corsConfig(cfg.Server.CORSOrigins)),
	)
	r.NoRoute(middleware.NotFound())
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	api := r.Group("/api")
	api.Use(limiter.Middleware(), middleware.BodyLimit(cfg.Server.BodyLimit))
	v1 := api.Group("/v1")

	protect := middleware.Protect(d.Auth)
	restrict := middleware.RestrictTo

	authH := NewAuthHandler(d.Auth, cfg.Auth.CookieExpiresDays, cfg.Production())
	userH := NewUserHandler(d.Users, queryOptions(cfg.Query, query.UserSchema))
	tourH := NewTourHandler(d.Tours, queryOptions(cfg.Query, query.TourSchema))
	reviewH := NewReviewHandler(d.Reviews, queryOptions(cfg.Query, query.ReviewSchema))

	users := v1.Group("/users")
	users.POST("/signup", authH.Signup)
	users.POST("/login", authH.Login)
	users.POST("/forgotPassword", authH.ForgotPassword)
	users.PATCH("/resetPassword/:resetToken", authH.ResetPassword)

	me := users.Group("", protect)
	me.PATCH("/updatePassword", authH.UpdatePassword)
	me.PATCH("/updateMe", authH.UpdateMe)
	me.DELETE("/deleteMe", authH.DeleteMe)
	me.GET("/me", authH.Me)

	admin := me.Group("", restrict(models.RoleAdmin))
	admin.GET("", userH.GetAll())
	admin.POST("", userH.Create)
	admin.GET("/:id", userH.Get())
	admin.PATCH("/:id", userH.Update())
	admin.DELETE("/:id", userH.Delete())

	tourEditors := restrict(models.RoleAdmin, models.RoleLeadGuide)
	staff := restrict(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide)
	reviewers := restrict(models.RoleUser, models.RoleAdmin)

	tours := v1.Group("/tours")
	tours.GET("", tourH.GetAll())
	tours.POST("", protect, tourEditors, tourH.Create)
	tours.GET("/top-cheapest", TopCheapest(), tourH.GetAll())
	tours.GET("/tour-stats", protect, staff, tourH.Stats)
	tours.GET("/tour-stats/:year", protect, staff, tourH.Stats)
	tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", tourH.Within)
	tours.GET("/distances/:latlng/unit/:unit", tourH.Distances)
	tours.GET("/:id", tourH.Get())
	tours.PATCH("/:id", protect, tourEditors, tourH.Update())
	tours.DELETE("/:id", protect, tourEditors, tourH.Delete())
	tours.GET("/:id/reviews", reviewH.GetAllForTour())
	tours.POST("/:id/reviews", protect, reviewers, reviewH.Create)

	reviews := v1.Group("/reviews")
	reviews.GET("", reviewH.GetAll())
	reviews.POST("", protect, reviewers, reviewH.Create)
	reviews.GET("/:id", reviewH.Get())
	reviews.PATCH("/:id", protect, reviewers, reviewH.Update())
	reviews.DELETE("/:id", protect, reviewers, reviewH.Delete())

	return r
}
