package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Methods":  strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}, ", "),
	"Access-Control-Allow-Headers":  strings.Join([]string{"Content-Type", "Authorization", HeaderRequestID}, ", "),
	"Access-Control-Expose-Headers": HeaderRequestID,
	"Access-Control-Max-Age":        "86400",
}

// CORS answers cross-origin requests for the configured origins.
// allowedOrigins is "*", empty (same as "*"), or a comma-separated list.
// A listed origin is echoed back with Vary: Origin; others get no CORS headers.
// Preflight requests stop here with 204 whether or not the origin is allowed.
func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := parseOrigins(allowedOrigins)
	wildcard := len(origins) == 0 || origins["*"]
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && origins[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		default:
			origin = ""
		}
		if wildcard || origin != "" {
			for k, v := range corsHeaders {
				c.Header(k, v)
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func parseOrigins(s string) map[string]bool {
	m := make(map[string]bool)
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			m[o] = true
		}
	}
	return m
}
