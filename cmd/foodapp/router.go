package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/MikeMC777/foodapp/docs"
	"github.com/MikeMC777/foodapp/internal/auth"
	"github.com/MikeMC777/foodapp/internal/httpx"
	"github.com/MikeMC777/foodapp/internal/notify"
	"github.com/MikeMC777/foodapp/internal/order"
	"github.com/MikeMC777/foodapp/internal/restaurant"
	"github.com/MikeMC777/foodapp/internal/user"
)

// app holds everything the handlers need.
type app struct {
	users       *user.Service
	restaurants *restaurant.Service
	orders      *order.Service
	hub         *notify.Hub
	tokens      *auth.Tokens
	// ping reports database readiness; nil means always ready.
	ping func(context.Context) error
	// keepAlive paces event stream comments and access rechecks.
	// Zero means defaultKeepAlive.
	keepAlive time.Duration
}

func newRouter(a *app, corsOrigin string) *gin.Engine {
	every := a.keepAlive
	if every <= 0 {
		every = defaultKeepAlive
	}

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.CORS(corsOrigin), httpx.Logger())

	r.GET("/healthz", healthHandler(a.ping))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	requireAuth := httpx.Auth(a.tokens)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", registerHandler(a.users))
	authGroup.POST("/login", loginHandler(a.users))
	authGroup.GET("/me", requireAuth, meHandler(a.users))

	rs := api.Group("/restaurants")
	rs.GET("", listRestaurantsHandler(a.restaurants))
	rs.GET("/:id", getRestaurantHandler(a.restaurants))
	rs.GET("/:id/events", requireAuth, restaurantEventsHandler(a.orders, a.hub, every))

	orders := api.Group("/orders", requireAuth)
	orders.POST("", createOrderHandler(a.orders))
	orders.GET("", listAllOrdersHandler(a.orders))
	orders.GET("/my-orders", myOrdersHandler(a.orders))
	orders.GET("/restaurant/:restaurantId", restaurantOrdersHandler(a.orders))
	orders.GET("/delivery/my-assignments", myAssignmentsHandler(a.orders))
	orders.GET("/:id", getOrderHandler(a.orders))
	orders.GET("/:id/history", orderHistoryHandler(a.orders))
	orders.GET("/:id/events", orderEventsHandler(a.orders, a.hub, every))
	orders.PATCH("/:id/status", updateStatusHandler(a.orders))
	orders.PATCH("/:id/assign", assignHandler(a.orders))
	orders.DELETE("/:id", cancelOrderHandler(a.orders))

	return r
}

// healthHandler reports 503 while the database is unreachable.
func healthHandler(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
