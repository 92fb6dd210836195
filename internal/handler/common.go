package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"jamm/backend/internal/database"
	"jamm/backend/internal/friends"
)

// viewerID returns the authenticated account id, or 0 for anonymous access.
func viewerID(c *gin.Context) uint {
	if id, exists := c.Get("accountID"); exists {
		return id.(uint)
	}
	return 0
}

func friendsService() *friends.Service {
	return friends.NewService(database.DB)
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func parseFloat(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
