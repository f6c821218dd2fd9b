// middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"petcare/models"
	"petcare/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorKey = "actor"

// JWTAuthMiddleware validates the bearer token and admits only the listed roles.
// The caller is stored in the context as a models.Actor.
func JWTAuthMiddleware(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.JSONError(c, http.StatusUnauthorized, "Missing or invalid Authorization header", &utils.ErrorBody{Kind: "unauthorized"})
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.GetLogger().Debug("rejected token", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, "Invalid token", &utils.ErrorBody{Kind: "unauthorized"})
			return
		}

		role := models.Role(claims.Role)
		if len(allowed) > 0 && !allowed[role] {
			utils.JSONError(c, http.StatusForbidden, "Insufficient permissions", &utils.ErrorBody{Kind: "forbidden"})
			return
		}

		c.Set(actorKey, models.Actor{ID: claims.Subject, Role: role, StoreID: claims.StoreID})
		c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on a
// websocket handshake, so upgrade requests may pass the token as ?token= instead.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}

// ActorFrom returns the authenticated caller set by JWTAuthMiddleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// SetActor is used by tests to bypass token parsing.
func SetActor(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, actor)
		c.Next()
	}
}
