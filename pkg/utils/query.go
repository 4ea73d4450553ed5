package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// PageParams reads page and limit from the query string, falling back to 1 and
// defaultLimit for missing or malformed values.
func PageParams(c *gin.Context, defaultLimit int) (page, limit int) {
	page, limit = 1, defaultLimit
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}

// StatusParam turns ?status=true|false into an is_active filter; anything else is no filter.
func StatusParam(c *gin.Context) *bool {
	switch strings.TrimSpace(c.Query("status")) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}
