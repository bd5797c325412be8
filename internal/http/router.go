// README: HTTP router wiring: middleware chain and route registration.
package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"reparto/internal/http/handlers"
	"reparto/internal/http/middleware"
	"reparto/internal/modules/dispatch"
	"reparto/internal/modules/location"
	"reparto/internal/modules/order"
	"reparto/internal/modules/pricing"
	"reparto/internal/modules/rider"
)

type RouterDeps struct {
	Riders    *rider.Service
	Locations *location.Service
	Orders    *order.Service
	Dispatch  *dispatch.Service
	Zone      order.ZoneChecker
	Pricer    *pricing.Service
	Log       *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logging(log),
		middleware.Metrics(),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	riderHandler := handlers.NewRiderHandler(deps.Riders, deps.Dispatch, log)
	locationHandler := handlers.NewLocationHandler(deps.Locations, deps.Riders, log)
	orderHandler := handlers.NewOrderHandler(deps.Orders, deps.Dispatch, log)
	zoneHandler := handlers.NewZoneHandler(deps.Zone, deps.Pricer)

	api := r.Group("/api")

	riders := api.Group("/riders")
	riders.POST("", riderHandler.Create)
	riders.GET("", riderHandler.List)
	riders.GET("/available", riderHandler.Available)
	riders.GET("/nearby", riderHandler.Nearby)
	riders.GET("/:id", riderHandler.Get)
	riders.DELETE("/:id", riderHandler.Delete)
	riders.PATCH("/:id/status", riderHandler.SetStatus)
	riders.PATCH("/:id/active", riderHandler.SetActive)
	riders.PATCH("/:id/rating", riderHandler.SetRating)
	riders.PUT("/:id/vehicle", riderHandler.PutVehicle)
	riders.POST("/:id/location", locationHandler.Push)
	riders.GET("/:id/location/history", locationHandler.History)

	orders := api.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.POST("/:id/assign", orderHandler.Assign)
	orders.POST("/:id/complete", orderHandler.Complete)

	api.POST("/zone/check", zoneHandler.Check)
	api.POST("/quote", zoneHandler.Quote)

	return r
}
