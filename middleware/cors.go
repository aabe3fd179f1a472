package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/FumingPower3925/ttrpg-session-manager/config"
)

// CORS allows the browser player UI to reach the API and the websocket from
// its own origin. Origins come from config so a deployed UI only needs an
// environment change.
func CORS() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = config.GetCORSOrigins()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type"}

	return cors.New(cfg)
}
