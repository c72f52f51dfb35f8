package routes

import (
	"crypto/subtle"
	"net/http"
	"sorbo_shop/pkg"
	"strings"

	"github.com/gin-gonic/gin"
)

// OperatorAuth gates back-office endpoints behind a static bearer token.
func OperatorAuth(token string) gin.HandlerFunc {
	unauthorized := pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing or invalid operator token", http.StatusUnauthorized)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(unauthorized.HTTPStatus, unauthorized.ToHTTPError())
			return
		}
		c.Next()
	}
}
