package middleware

import (
	"context"

	"go-leavedesk/internal/domain"
	"go-leavedesk/internal/shared/apperror"
	"go-leavedesk/internal/shared/contextutil"
	"go-leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// EmployeeResolver returns the id of the employee record linked to actor.
type EmployeeResolver func(ctx context.Context, actor contextutil.Actor) (string, error)

// OwnerOrPermission admits the request when the employee id in path param is
// the caller's own record, or when the caller's role holds resource:action.
// resolve is consulted only when the token carries no employee id.
func OwnerOrPermission(service RBACService, resource, action, param string, resolve EmployeeResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := contextutil.GetActor(c.Request.Context())
		if !ok || actor.Role == "" {
			response.AbortWithError(c, apperror.ErrUnauthorized)
			return
		}

		allowed, err := service.Enforce(domain.EnforceRequest{
			Role:     actor.Role,
			Resource: resource,
			Action:   action,
		})
		if err != nil {
			response.AbortWithError(c, apperror.ErrInternal)
			return
		}
		if allowed {
			c.Next()
			return
		}

		own := actor.EmployeeID
		if own == "" && resolve != nil {
			own, err = resolve(c.Request.Context(), actor)
			if err != nil {
				httpErr := apperror.ToHTTP(err)
				response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
				c.Abort()
				return
			}
		}
		if own == "" || own != c.Param(param) {
			response.AbortWithError(c, apperror.ErrForbidden)
			return
		}

		c.Next()
	}
}
