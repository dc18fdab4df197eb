package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// queryInt reads a bounded integer query parameter
func queryInt(c *gin.Context, key string, def, max int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil || v < 0 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}
