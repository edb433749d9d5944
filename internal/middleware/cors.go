package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the listed presentation-layer origins. With no origins it is a no-op
// and browsers fall back to same-origin.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Correlation-ID"},
		ExposeHeaders: []string{"X-Correlation-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	})
}
