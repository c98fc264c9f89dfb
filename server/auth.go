package parcelserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	shipmentsports "github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
	"github.com/parceltrack/parcel-api-server/internal/shared/response"
)

// Identity headers set by the authenticating proxy. The API trusts them
// unconditionally; token verification happens upstream.
const (
	HeaderActorID        = "X-Actor-Id"
	HeaderActorRole      = "X-Actor-Role"
	HeaderIdempotencyKey = "X-Idempotency-Key"
)

const actorContextKey = "parcelserver.actor"

// RequireActor rejects requests that carry no verified identity headers and
// stores the actor on the gin context for handlers.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderActorID)
		role := usersdomain.Role(c.GetHeader(HeaderActorRole))
		if id == "" || !role.Valid() {
			response.Fail(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		c.Set(actorContextKey, shipmentsports.Actor{ID: id, Role: role})
		c.Next()
	}
}

// RequireRole allows only the listed roles past. Must run after RequireActor.
func RequireRole(roles ...usersdomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		response.Fail(c, http.StatusForbidden, "Insufficient permissions")
		c.Abort()
	}
}

func actorFrom(c *gin.Context) shipmentsports.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(shipmentsports.Actor); ok {
			return actor
		}
	}
	return shipmentsports.Actor{}
}
