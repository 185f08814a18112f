package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS lets browser editors on origins call the API. An empty list allows
// any origin. Clients may send and read X-Request-ID; run streams need
// Cache-Control.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowHeaders("Accept", "Cache-Control", RequestIDHeader)
	cfg.AddExposeHeaders(RequestIDHeader)
	return cors.New(cfg)
}
