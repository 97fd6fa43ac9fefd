package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bustrack/bus-tracking-backend/internal/database"
)

// dateLayout is the wire format for calendar-day query parameters
const dateLayout = "2006-01-02"

// intParam parses a non-negative integer path parameter, writing a 400
// response on failure
func intParam(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + name})
		return 0, false
	}
	return value, true
}

// dateQuery parses an optional ?date=YYYY-MM-DD query parameter. A
// missing parameter yields nil; a malformed one writes a 400 response.
func dateQuery(c *gin.Context) (*time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return nil, true
	}

	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date, expected YYYY-MM-DD"})
		return nil, false
	}

	return &parsed, true
}

// writeStoreError maps repository sentinels to HTTP responses. Anything
// that isn't a sentinel is a server failure: logged with detail, detail
// withheld from the client.
func writeStoreError(c *gin.Context, log *logrus.Logger, err error, notFoundMsg, duplicateMsg string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMsg})
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"message": duplicateMsg})
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("store operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
