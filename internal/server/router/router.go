package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/server/handlers"
)

// Handlers groups the HTTP adapters the router mounts.
type Handlers struct {
	Lots    *handlers.LotHandler
	Diets   *handlers.DietHandler
	Reports *handlers.ReportHandler
	Tools   *handlers.ToolHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	lots := r.Group("/lots")
	lots.POST("", h.Lots.Create)
	lots.GET("", h.Lots.List)
	lots.GET("/:id", h.Lots.Get)
	lots.PATCH("/:id", h.Lots.Update)
	lots.DELETE("/:id", h.Lots.Delete)
	lots.GET("/:id/weighings", h.Lots.Weighings)
	lots.POST("/:id/weighings", h.Lots.Weigh)

	sessions := r.Group("/sessions")
	sessions.POST("", h.Lots.OpenSession)
	sessions.GET("/:id", h.Lots.GetSession)
	sessions.POST("/:id/observations", h.Lots.RecordAnimal)
	sessions.POST("/:id/finish", h.Lots.FinishSession)
	sessions.DELETE("/:id", h.Lots.DiscardSession)

	r.POST("/transfers/evaluate", h.Tools.EvaluateTransfer)
	r.POST("/units/convert", h.Tools.ConvertUnits)

	inventory := r.Group("/inventory")
	inventory.POST("", h.Diets.CreateItem)
	inventory.GET("", h.Diets.ListItems)
	inventory.GET("/:id", h.Diets.GetItem)

	diets := r.Group("/diets")
	diets.POST("", h.Diets.Assign)
	diets.GET("", h.Diets.List)
	diets.DELETE("/:id", h.Diets.Cancel)

	r.POST("/consumption/advance", h.Diets.Advance)

	reports := r.Group("/reports")
	reports.GET("/breeds", h.Reports.Breeds)
	reports.GET("/weighings", h.Reports.Weighings)

	logger.Info("router initialized")
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("request completed", fields...)
	}
}
