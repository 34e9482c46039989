package middleware

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/gabpmcp/bolivar-test/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// requiredHeaders must stay allowed regardless of operator overrides: every
// mutation route reads Idempotency-Key and authenticated routes read
// Authorization, so dropping either breaks browser clients.
var requiredHeaders = []string{"Authorization", "Idempotency-Key"}

func NewCORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     mergeHeaders(cfg.AllowHeaders),
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	slog.Info("CORS middleware initialized", "AllowOrigins", cfg.AllowOrigins)
	return cors.New(corsCfg)
}

func mergeHeaders(configured []string) []string {
	merged := slices.Clone(configured)
	for _, h := range requiredHeaders {
		if !slices.ContainsFunc(merged, func(c string) bool { return strings.EqualFold(c, h) }) {
			merged = append(merged, h)
		}
	}
	return merged
}
