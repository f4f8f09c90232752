// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mobility-pricing/internal/http/handlers"
	"mobility-pricing/internal/http/middleware"
	"mobility-pricing/internal/logger"
)

type ServerDeps struct {
	Pricing handlers.PricingService
	Rules   handlers.RuleAdmin
	Network handlers.NetworkAdmin
	Logger  *logger.Logger
}

type Server struct {
	pricing *handlers.PricingHandler
	admin   *handlers.AdminHandler
	log     *logger.Logger
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		pricing: handlers.NewPricingHandler(deps.Pricing),
		admin:   handlers.NewAdminHandler(deps.Rules, deps.Network),
		log:     log,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(s.log), middleware.Logging(s.log))

	api := r.Group("/api/pricing")
	api.POST("/calculate", s.pricing.Calculate)
	api.GET("/results/:id", s.pricing.GetResult)
	api.POST("/results/:id/republish", s.pricing.Republish)
	api.GET("/trips/:tripId/results", s.pricing.ListByTrip)

	admin := r.Group("/admin")
	admin.POST("/discount-rules", s.admin.CreateRule)
	admin.GET("/discount-rules", s.admin.ListRules)
	admin.DELETE("/discount-rules/:id", s.admin.DeleteRule)
	admin.POST("/transport-lines", s.admin.CreateLine)
	admin.GET("/transport-lines", s.admin.ListLines)
	admin.POST("/fare-sections", s.admin.CreateSection)
	admin.GET("/fare-sections", s.admin.ListSections)
	admin.POST("/zones", s.admin.CreateZone)
	admin.GET("/zones", s.admin.ListZones)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
