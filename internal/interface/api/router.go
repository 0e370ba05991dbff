package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flightwindow-service/pkg/logger"
)

// NewRouter wires the handler routes and /metrics. A nil gatherer means
// the default registry.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, log logger.Logger) *gin.Engine {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/summaries", h.GetRangeSummary)
		v1.GET("/summaries/:date", h.GetDailySummary)
		v1.GET("/flights", h.ListFlights)
		v1.POST("/classify", h.Classify)
		v1.GET("/exports/:date", h.Export)
	}
	return r
}
