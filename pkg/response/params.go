package response

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// PathID parses a positive integer path parameter. On failure it writes a
// 400 response and returns false.
func PathID(c *gin.Context, name string) (int64, bool) {
	return parseID(c, name, c.Param(name))
}

// QueryID parses a positive integer query parameter. On failure it writes a
// 400 response and returns false.
func QueryID(c *gin.Context, name string) (int64, bool) {
	return parseID(c, name, c.Query(name))
}

func parseID(c *gin.Context, name, raw string) (int64, bool) {
	if raw == "" {
		BadRequest(c, fmt.Sprintf("%s is required", name))
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}
