package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"madrid-bins-api/internal/domain/model"
)

// ValidateBinType rejects unknown :binType path parameters before any
// handler runs. The set is closed, so this is the only place a raw table
// name from the wire is ever checked.
func ValidateBinType() gin.HandlerFunc {
	return func(c *gin.Context) {
		binType := c.Param("binType")
		if !model.IsValidBinType(binType) {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				model.FailureResponse("invalid bin type: "+binType, http.StatusBadRequest))
			return
		}
		c.Next()
	}
}
